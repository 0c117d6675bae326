package availability

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Muhammed-Altan/LejGoProLive-sub000/model"
)

// Key builds the canonical cache key for an availability query. Id lists are
// sorted copies, so semantically identical requests collide regardless of the
// order the client sent them in.
func Key(w model.DateWindow, productIDs, accessoryIDs []int64, bufferDays int) string {
	return fmt.Sprintf("%s%s:%s:p=%s:a=%s:buf=%d",
		KeyPrefix,
		w.Start.Format("2006-01-02"),
		w.End.Format("2006-01-02"),
		joinSorted(productIDs),
		joinSorted(accessoryIDs),
		bufferDays,
	)
}

func joinSorted(ids []int64) string {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}
