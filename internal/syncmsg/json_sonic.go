//go:build sonic

package syncmsg

import (
	"github.com/bytedance/sonic"
)

var (
	JSONMarshal   = sonic.ConfigStd.Marshal
	JSONUnmarshal = sonic.ConfigStd.Unmarshal
)

// JSONMarshalIndent is used for files people may want to read, like the baseline
func JSONMarshalIndent(v any) ([]byte, error) {
	return sonic.ConfigStd.MarshalIndent(v, "", "  ")
}
