package tx

import (
	"fmt"

	"github.com/bsv-blockchain/go-sdk/script"
)

// MaxMemoSize is the largest memo accepted by CompileMemo.
const MaxMemoSize = 220

// CompileMemo encodes memo as an OP_RETURN <push memo> data script.
func CompileMemo(memo string) ([]byte, error) {
	if memo == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidMemo)
	}
	if len(memo) > MaxMemoSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds maximum %d", ErrInvalidMemo, len(memo), MaxMemoSize)
	}
	s := &script.Script{}
	if err := s.AppendOpcodes(script.OpRETURN); err != nil {
		return nil, fmt.Errorf("%w: OP_RETURN: %w", ErrScriptBuild, err)
	}
	if err := s.AppendPushData([]byte(memo)); err != nil {
		return nil, fmt.Errorf("%w: memo push data: %w", ErrScriptBuild, err)
	}
	return []byte(*s), nil
}
