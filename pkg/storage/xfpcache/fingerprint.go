package xfpcache

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// partSep 各部分之间的分隔字节，防止 ("ab","c") 与 ("a","bc") 碰撞。
const partSep = 0x1f

// Fingerprint 对一组可序列化值计算确定性指纹。
//
// 每个部分先做规范化 JSON 编码——encoding/json 对 map 键按字典序
// 排序，结构体字段按声明顺序输出——因此字段顺序无关的语义等价输入
// 产生相同指纹，任一语义字段变化则指纹变化。
// 编码后逐部分喂入 xxhash，返回 16 位十六进制摘要。
//
// 部分不可编码（如含 channel/func）时返回错误。
func Fingerprint(parts ...any) (string, error) {
	digest := xxhash.New()
	sep := [1]byte{partSep}
	for i, part := range parts {
		if i > 0 {
			_, _ = digest.Write(sep[:])
		}
		encoded, err := json.Marshal(part)
		if err != nil {
			return "", fmt.Errorf("xfpcache: encoding part %d: %w", i, err)
		}
		_, _ = digest.Write(encoded)
	}
	return strconv.FormatUint(digest.Sum64(), 16), nil
}

// MustFingerprint 与 Fingerprint 相同，编码失败时 panic。
// 传入不可序列化的部分属于程序性错误，应在开发期暴露。
func MustFingerprint(parts ...any) string {
	fp, err := Fingerprint(parts...)
	if err != nil {
		panic(err)
	}
	return fp
}
