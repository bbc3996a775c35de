// Package xfpcache 提供以内容指纹为键、带 TTL 的 LRU 响应缓存。
//
// # 设计理念
//
// 重复的生成请求不应重复触发昂贵的上游调用。xfpcache 对规范化后的
// 请求内容计算确定性指纹作为缓存键：字段顺序不同但语义相同的请求
// 映射到同一个键；以指纹而非原始负载作键，使大负载（如图片）不进入
// 键空间，等值判断为 O(1)。
//
// # 核心概念
//
//   - Fingerprint：对各部分做规范化 JSON 编码（map 键排序）后取
//     xxhash 摘要，拼接为 16 进制字符串
//   - Cache：容量受限 + TTL 受限的 LRU，命中刷新近期性，
//     过期条目在访问时视为缺失并被物理清除
//   - Stats：命中/未命中/淘汰计数与命中率
//
// # 快速开始
//
//	cache, err := xfpcache.New[*Response](xfpcache.Config{
//	    Capacity: 100,
//	    TTL:      time.Hour,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fp, _ := xfpcache.Fingerprint(imageData, description, techStack)
//	if resp, ok := cache.Get(fp); ok {
//	    return resp // 命中，跳过上游
//	}
//	resp := invokeUpstream(...)
//	cache.Set(fp, resp)
//
// # 不变量
//
//   - 条目数永不超过 Capacity；容量满时插入新键先淘汰最久未访问条目
//   - 过期条目（now - stored_at > ttl）永不作为命中返回
//   - 近期性顺序与访问历史一致：Get 命中即提升为最新
//
// # 与 xlru 型封装的取舍
//
// 未复用 hashicorp expirable.LRU：其 TTL 绑定系统时钟，无法注入
// 假时钟做确定性过期测试。本包在 simplelru 之上自管 stored_at
// 时间戳，TTL 判定走注入的 xclock.Clock。
package xfpcache
