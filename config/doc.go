// 版权所有 2025 WebExtract Authors
// 基于 MIT 许可证发布

// Package config 提供 WebExtract 的统一配置加载。
//
// 配置来源优先级: 默认值 → YAML 文件 → 环境变量（WEBEXTRACT 前缀）。
// 配置在进程启动时解析一次；可复现性参数在会话期内只读。
package config
