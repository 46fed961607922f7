package storage

import (
	"fmt"

	"github.com/poiesic/catalogit/core"
)

// MergeMetadata combines existing metadata with patch according to strategy.
// Neither input is modified.
func MergeMetadata(existing, patch core.Metadata, strategy MergeStrategy) (core.Metadata, error) {
	switch strategy {
	case MergeShallow:
		merged := existing.Clone()
		for k, v := range patch {
			merged[k] = v
		}
		return merged, nil
	case MergeReplace:
		return patch.Clone(), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMergeStrategy, strategy)
	}
}
