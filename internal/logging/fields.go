package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 上游等基础字段，便于不同入口复用。
func BaseFields(action, upstream string) logrus.Fields {
	return logrus.Fields{
		"action":   action,
		"upstream": upstream,
	}
}

// RequestFields 提供方法/解析阶段/路径/状态字段，供访问日志复用。
func RequestFields(method, stage, path string, status int) logrus.Fields {
	return logrus.Fields{
		"method": method,
		"stage":  stage,
		"path":   path,
		"status": status,
	}
}
