// 版权所有 2025 WebExtract Authors
// 基于 MIT 许可证发布

// webextract 是 WebExtract 的命令行入口。
//
// 子命令:
//
//	serve     启动 HTTP 服务（提取 API、报告 API、进度 WebSocket、内嵌仪表盘）
//	report    从运行中的服务拉取性能报告
//	migrate   数据库迁移（up/down/status/version/goto/force/reset）
//	version   显示版本信息
//	health    对运行中的服务做健康检查
//
// serve 在两个端口上监听：主端口承载 API 与仪表盘，metrics 端口
// 只暴露 Prometheus /metrics。配置来自 YAML 文件与 WEBEXTRACT_ 前缀
// 的环境变量。
package main
