package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/quarry/core"
)

// Key prefixes for different data types
const (
	collectionPrefix     = "colrec"
	collectionNamePrefix = "colnam"
	collectionIDSeq      = "colrecseq"
	documentPrefix       = "docrec"
	documentColPrefix    = "doccol"
	documentIDSeq        = "docrecseq"
	chunkPrefix          = "chkrec"
	chunkDocPrefix       = "chkdoc"
	chunkColPrefix       = "chkcol"
	usagePrefix          = "userec"
	usagePeriodPrefix    = "useper"
	usageIDSeq           = "userecseq"
	alertPrefix          = "alrrec"
	alertDatePrefix      = "alrdat"
	alertPeriodPrefix    = "alrper"
	alertIDSeq           = "alrrecseq"
)

// makeRecordKey generates a primary key for a record by ID.
func makeRecordKey(prefix string, id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", prefix, id))
}

// makeCompositeKey generates a composite index key.
// Format: prefix:parentID:childID with both IDs in BigEndian order so
// lexicographic sort works correctly.
func makeCompositeKey(prefix string, parent, child core.ID) []byte {
	prefixBytes := []byte(prefix + ":")
	buf := make([]byte, len(prefixBytes)+16)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(parent))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(child))
	return buf
}

// makePartialCompositeKey generates a partial key for prefix scans over one
// parent's index entries.
func makePartialCompositeKey(prefix string, parent core.ID) []byte {
	prefixBytes := []byte(prefix + ":")
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(parent))
	return buf
}

// makeCollectionNameKey generates the unique-name index key for a collection.
func makeCollectionNameKey(name string) []byte {
	return []byte(collectionNamePrefix + ":" + name)
}

// makePeriodKey generates a composite key for period indexes.
// Format: prefix:period:id. Period keys are fixed-length ("2006-01") so the
// trailing BigEndian ID keeps entries sorted by insertion within a period.
func makePeriodKey(prefix, period string, id core.ID) []byte {
	prefixBytes := []byte(prefix + ":" + period + ":")
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialPeriodKey generates a partial key for period range scans.
func makePartialPeriodKey(prefix, period string) []byte {
	return []byte(prefix + ":" + period + ":")
}

// makeAlertDateKey generates a composite key for the alert recency index.
// Format: prefix:timestampMicros:id in BigEndian order.
func makeAlertDateKey(micros int64, id core.ID) []byte {
	prefixBytes := []byte(alertDatePrefix + ":")
	buf := make([]byte, len(prefixBytes)+16)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(micros))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}
