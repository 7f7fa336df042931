package verification

import (
	"github.com/hoangsonww/hashsplit/internal/crypto"
	"github.com/hoangsonww/hashsplit/internal/monitoring"
)

// Chunk is one manifest entry
type Chunk struct {
	Offset int64         `json:"offset"`
	Length int           `json:"length"`
	Digest crypto.Digest `json:"digest"`
}

// VerificationResult compares an input's chunks against a manifest
type VerificationResult struct {
	TotalChunks    int     `json:"total_chunks"`
	VerifiedChunks int     `json:"verified_chunks"` // same digest at the same offset
	MovedChunks    int     `json:"moved_chunks"`    // same digest at another offset
	MissingChunks  []Chunk `json:"missing_chunks"`  // in the manifest, absent from the input
	AddedChunks    []Chunk `json:"added_chunks"`    // in the input, absent from the manifest
	Success        bool    `json:"success"`
}

// Verifier checks re-chunked inputs against recorded manifests
type Verifier struct {
	logger *monitoring.Logger
}

// NewVerifier creates a verifier that reports through logger
func NewVerifier(logger *monitoring.Logger) *Verifier {
	return &Verifier{logger: logger}
}

// Verify compares actual with manifest. Success requires identical chunk
// sequences. Chunks are matched by digest, so content that only shifted is
// counted as moved rather than missing.
func (v *Verifier) Verify(manifest, actual []Chunk) *VerificationResult {
	result := &VerificationResult{
		TotalChunks:   len(manifest),
		MissingChunks: make([]Chunk, 0),
		AddedChunks:   make([]Chunk, 0),
	}

	available := make(map[crypto.Digest][]Chunk, len(actual))
	for _, c := range actual {
		available[c.Digest] = append(available[c.Digest], c)
	}

	for _, want := range manifest {
		candidates := available[want.Digest]
		if len(candidates) == 0 {
			result.MissingChunks = append(result.MissingChunks, want)
			continue
		}

		pick := 0
		for i, c := range candidates {
			if c.Offset == want.Offset {
				pick = i
				break
			}
		}
		if candidates[pick].Offset == want.Offset {
			result.VerifiedChunks++
		} else {
			result.MovedChunks++
		}
		available[want.Digest] = append(candidates[:pick:pick], candidates[pick+1:]...)
	}

	for _, c := range actual {
		if left := available[c.Digest]; len(left) > 0 {
			result.AddedChunks = append(result.AddedChunks, left[0])
			available[c.Digest] = left[1:]
		}
	}

	result.Success = len(manifest) == len(actual) &&
		result.VerifiedChunks == len(manifest)

	v.logger.WithFields(map[string]interface{}{
		"total_chunks":    result.TotalChunks,
		"verified_chunks": result.VerifiedChunks,
		"moved_chunks":    result.MovedChunks,
		"missing_chunks":  len(result.MissingChunks),
		"added_chunks":    len(result.AddedChunks),
		"success":         result.Success,
	}).Debug("verification completed")

	return result
}
