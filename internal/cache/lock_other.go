//go:build !unix

package cache

import "os"

// 没有 flock 时，撕裂读取仍会解码失败；加锁重试只是重新读取，
// 仍无法解码时删除文件。
func lockShared(*os.File) error    { return nil }
func lockExclusive(*os.File) error { return nil }
func unlockFile(*os.File) error    { return nil }
