package shortid

import (
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSHA256_Generate_KnownVectors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"https://example.com", "tOb2G2"},
		{"tObhttps://example.com", "aY4nvG"},
		{"https://example.com/", "pCMaFN"},
		{"https://example.org", "ACY0sw"},
		{"https://a.com", "ojerJ0"},
		{"https://a.com/", "wKOdLG"},
		{"https://a.com?q=1", "vJT7ul"},
		{"HTTPS://A.COM", "V1CLWt"},
		{"abc", "f2fc64"},
		{"", "KKGQUQ"},
	}

	var g SHA256
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Generate(tt.input))
		})
	}
}

func TestSHA256_Generate_Deterministic(t *testing.T) {
	var g SHA256
	first := g.Generate("https://example.com/some/long/path?with=query")
	for range 10 {
		assert.Equal(t, first, g.Generate("https://example.com/some/long/path?with=query"))
	}
}

func TestSHA256_Generate_Alphabet(t *testing.T) {
	var g SHA256
	inputs := []string{"", "a", "https://example.com", "ünïcödé", strings.Repeat("x", 4096)}
	for _, in := range inputs {
		id := g.Generate(in)
		require.NotEmpty(t, id)
		assert.LessOrEqual(t, len(id), MaxLength)
		for _, r := range id {
			assert.Contains(t, alphabet, string(r), "unexpected rune %q in %q", r, id)
		}
	}
}

func TestSHA256_Generate_Concurrent(t *testing.T) {
	var g SHA256
	want := g.Generate("https://example.com")

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, g.Generate("https://example.com"))
		}()
	}
	wg.Wait()
}

func TestEncode(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{9, "9"},
		{10, "A"},
		{35, "Z"},
		{36, "a"},
		{61, "z"},
		{62, "10"},
		{62*62 + 1, "101"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, encode(big.NewInt(tt.n)), "encode(%d)", tt.n)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 6))
	assert.Equal(t, "abcdef", truncate("abcdef", 6))
	assert.Equal(t, "abcdef", truncate("abcdefgh", 6))
}

func TestFunc(t *testing.T) {
	g := Func(func(input string) string { return "x" + input })
	assert.Equal(t, "xy", g.Generate("y"))
}
