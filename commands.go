package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/filecache/filecache/internal/cache"
	"github.com/filecache/filecache/internal/logging"
	"github.com/filecache/filecache/internal/storage"
)

type command func(env *environment, args []string) int

var commands = map[string]command{
	"check-config":  cmdCheckConfig,
	"get":           cmdGet,
	"get-multiple":  cmdGetMultiple,
	"set":           cmdSet,
	"delete":        cmdDelete,
	"delete-prefix": cmdDeletePrefix,
	"flush":         cmdFlush,
	"gc":            cmdGC,
	"is-empty":      cmdIsEmpty,
}

func usage(line string) int {
	fmt.Fprintln(stdErr, "usage: filecache "+line)
	return exitUsage
}

// withStore 打开 bin 并执行 fn，统一处理打开失败。
func withStore(env *environment, bin string, fn func(*cache.Store) int) int {
	store, _, err := env.openStore(bin)
	if err != nil {
		fmt.Fprintf(stdErr, "打开 bin %s 失败: %v\n", bin, err)
		return exitFailure
	}
	return fn(store)
}

func cmdCheckConfig(env *environment, _ []string) int {
	root, _, err := storage.ResolveRoot(env.cfg.Global.Locations())
	if err != nil {
		fmt.Fprintf(stdErr, "无法解析存储目录: %v\n", err)
		return exitFailure
	}
	fields := logging.BaseFields("check_config", env.configPath)
	fields["bins"] = env.cfg.BinNames()
	fields["root"] = root
	fields["result"] = "ok"
	env.logger.WithFields(fields).Info("配置校验通过")
	fmt.Fprintln(stdOut, "ok")
	return exitOK
}

func cmdGet(env *environment, args []string) int {
	if len(args) != 2 {
		return usage("get <bin> <key>")
	}
	return withStore(env, args[0], func(store *cache.Store) int {
		entry, ok := store.Get(args[1])
		if !ok {
			return exitMiss
		}
		if _, err := stdOut.Write(entry.Data); err != nil {
			return exitFailure
		}
		return exitOK
	})
}

func cmdGetMultiple(env *environment, args []string) int {
	if len(args) < 2 {
		return usage("get-multiple <bin> <key>...")
	}
	return withStore(env, args[0], func(store *cache.Store) int {
		requested := args[1:]
		misses := append([]string(nil), requested...)
		found := store.GetMultiple(&misses)
		for _, key := range requested {
			if entry, ok := found[key]; ok {
				fmt.Fprintf(stdOut, "hit\t%s\t%d\n", key, len(entry.Data))
			}
		}
		for _, key := range misses {
			fmt.Fprintf(stdOut, "miss\t%s\n", key)
		}
		if len(misses) > 0 {
			return exitMiss
		}
		return exitOK
	})
}

func cmdSet(env *environment, args []string) int {
	const line = "set [-ttl duration | -temporary | -permanent] <bin> <key> <value|->"
	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	ttl := fs.Duration("ttl", 0, "过期时间，默认使用 bin 的 DefaultTTL")
	temporary := fs.Bool("temporary", false, "下一次垃圾回收时清除")
	permanent := fs.Bool("permanent", false, "忽略 DefaultTTL，永不过期")
	if err := fs.Parse(args); err != nil || fs.NArg() != 3 {
		return usage(line)
	}
	if *temporary && *permanent {
		return usage(line)
	}
	bin, key, value := fs.Arg(0), fs.Arg(1), fs.Arg(2)

	data := []byte(value)
	if value == "-" {
		raw, err := io.ReadAll(stdIn)
		if err != nil {
			fmt.Fprintf(stdErr, "读取 stdin 失败: %v\n", err)
			return exitFailure
		}
		data = raw
	}

	store, rt, err := env.openStore(bin)
	if err != nil {
		fmt.Fprintf(stdErr, "打开 bin %s 失败: %v\n", bin, err)
		return exitFailure
	}
	expire := rt.ExpireAt(env.now, *ttl)
	switch {
	case *temporary:
		expire = cache.Temporary
	case *permanent:
		expire = cache.Permanent
	}
	store.Set(key, data, expire)
	return exitOK
}

func cmdDelete(env *environment, args []string) int {
	if len(args) < 2 {
		return usage("delete <bin> <key>...")
	}
	return withStore(env, args[0], func(store *cache.Store) int {
		store.Delete(args[1:]...)
		return exitOK
	})
}

func cmdDeletePrefix(env *environment, args []string) int {
	if len(args) != 2 {
		return usage("delete-prefix <bin> <prefix>")
	}
	return withStore(env, args[0], func(store *cache.Store) int {
		store.DeletePrefix(args[1])
		return exitOK
	})
}

func cmdFlush(env *environment, args []string) int {
	if len(args) != 1 {
		return usage("flush <bin>")
	}
	return withStore(env, args[0], func(store *cache.Store) int {
		store.Flush()
		return exitOK
	})
}

// cmdGC 回收指定 bin 的过期条目；未指定时处理配置中声明的全部 bin。
func cmdGC(env *environment, args []string) int {
	bins := args
	if len(bins) == 0 {
		bins = env.cfg.BinNames()
	}
	if len(bins) == 0 {
		return usage("gc [bin...]")
	}
	started := time.Now()
	for _, bin := range bins {
		code := withStore(env, bin, func(store *cache.Store) int {
			store.GarbageCollection()
			return exitOK
		})
		if code != exitOK {
			return code
		}
	}
	fields := logging.BaseFields("gc", env.configPath)
	fields["bins"] = strings.Join(bins, ",")
	fields["elapsed"] = time.Since(started).String()
	env.logger.WithFields(fields).Info("垃圾回收完成")
	return exitOK
}

func cmdIsEmpty(env *environment, args []string) int {
	if len(args) != 1 {
		return usage("is-empty <bin>")
	}
	return withStore(env, args[0], func(store *cache.Store) int {
		empty := store.IsEmpty()
		fmt.Fprintln(stdOut, empty)
		if !empty {
			return exitMiss
		}
		return exitOK
	})
}
