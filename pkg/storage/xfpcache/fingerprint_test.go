package xfpcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint_Deterministic(t *testing.T) {
	fp1, err := Fingerprint("image-bytes", "a login page", []string{"go", "htmx"})
	require.NoError(t, err)
	fp2, err := Fingerprint("image-bytes", "a login page", []string{"go", "htmx"})
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)
	assert.NotEmpty(t, fp1)
}

func TestFingerprint_MapKeyOrderIrrelevant(t *testing.T) {
	// encoding/json 对 map 键做字典序排序，语义等价的 map 必须同指纹。
	// 字面量写入顺序不同以覆盖无序遍历。
	m1 := map[string]any{"description": "dashboard", "tech_stack": "react", "project": "acme"}
	m2 := map[string]any{"project": "acme", "tech_stack": "react", "description": "dashboard"}

	fp1, err := Fingerprint(m1)
	require.NoError(t, err)
	fp2, err := Fingerprint(m2)
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)
}

func TestFingerprint_SemanticChange(t *testing.T) {
	base, err := Fingerprint("img", "a login page", "react")
	require.NoError(t, err)

	changed, err := Fingerprint("img", "a signup page", "react")
	require.NoError(t, err)
	assert.NotEqual(t, base, changed, "description change must change fingerprint")

	changed, err = Fingerprint("img", "a login page", "vue")
	require.NoError(t, err)
	assert.NotEqual(t, base, changed, "tech stack change must change fingerprint")
}

func TestFingerprint_PartBoundaries(t *testing.T) {
	// 分隔符保证部分边界参与摘要。
	fp1, err := Fingerprint("ab", "c")
	require.NoError(t, err)
	fp2, err := Fingerprint("a", "bc")
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp2)

	fp3, err := Fingerprint("abc")
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp3)
}

func TestFingerprint_Unencodable(t *testing.T) {
	_, err := Fingerprint(make(chan int))
	assert.Error(t, err)

	assert.Panics(t, func() {
		MustFingerprint(make(chan int))
	})
}

func TestMustFingerprint(t *testing.T) {
	fp := MustFingerprint("img", map[string]string{"k": "v"})
	assert.NotEmpty(t, fp)
	assert.Equal(t, fp, MustFingerprint("img", map[string]string{"k": "v"}))
}
