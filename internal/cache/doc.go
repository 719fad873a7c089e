// 版权所有 2025 WebExtract Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 cache 提供内部缓存能力，主要服务于经济指标快照与提取结果
的短期缓存。

# 概述

本包定义统一的 Store 接口，并提供两种实现：

  - Manager：基于 Redis 的分布式缓存，带连接池与健康检查，
    适合多副本部署共享经济数据快照。
  - Memory：进程内 TTL 缓存，无外部依赖，适合单副本部署
    或未配置 Redis 的场景。

# 错误语义

提供 ErrCacheMiss 哨兵错误与 IsCacheMiss 判断函数，未命中
不视为故障。
*/
package cache
