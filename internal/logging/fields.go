package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// StoreFields 提供 bin/op 字段，供缓存读写日志复用。
func StoreFields(bin, op string) logrus.Fields {
	return logrus.Fields{
		"action": "cache_" + op,
		"bin":    bin,
	}
}
