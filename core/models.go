package core

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ChunkID generates the content-addressed ID for a chunk. The document ID and
// position participate so that identical text in two documents gets distinct IDs.
func ChunkID(documentID ID, position int, text string) ID {
	return IDFromContent(fmt.Sprintf("%d:%d:%s", documentID, position, text))
}

// DocumentStatus tracks a document's progress through the ingestion pipeline.
type DocumentStatus int

const (
	// StatusPending means the document is registered but not yet processed.
	StatusPending DocumentStatus = iota + 1
	// StatusExtracting means text extraction is in progress (external stage).
	StatusExtracting
	// StatusChunking means the document text is being split into chunks.
	StatusChunking
	// StatusEmbedding means chunk embeddings are being generated.
	StatusEmbedding
	// StatusComplete means the document is fully ingested and searchable.
	StatusComplete
	// StatusError means ingestion failed; Document.Error holds the cause.
	StatusError
)

// String returns the lowercase status name used in metadata and CLI output.
func (s DocumentStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusExtracting:
		return "extracting"
	case StatusChunking:
		return "chunking"
	case StatusEmbedding:
		return "embedding"
	case StatusComplete:
		return "complete"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status is a terminal pipeline state.
func (s DocumentStatus) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// SourceQuality is the declared trust tier of a document's source.
type SourceQuality string

const (
	SourceOfficial  SourceQuality = "official"
	SourceVerified  SourceQuality = "verified"
	SourceCommunity SourceQuality = "community"
	SourceUnknown   SourceQuality = "unknown"
)

// Collection is a named namespace isolating documents.
type Collection struct {
	Id          ID
	Name        string
	Description string
	// Personal marks collections of personal writing; the router prefers the
	// writing-specialized provider for them.
	Personal   bool
	InsertedAt time.Time
}

// Document metadata keys recognized by the engine.
const (
	MetaDocType       = "docType"
	MetaLanguage      = "language"
	MetaSourceQuality = "sourceQuality"
	MetaLastVerified  = "lastVerified" // RFC3339
)

// Document is one ingested source within a collection.
// Its status is mutated only by the ingestion pipeline.
type Document struct {
	Id           ID
	CollectionId ID
	Title        string
	ContentType  string
	Status       DocumentStatus
	Error        string // populated when Status == StatusError
	Metadata     map[string]string
	Embedding    EmbeddingInfo // provider actually used, set during ingestion
	InsertedAt   time.Time
	UpdatedAt    time.Time
}

// EmbeddingInfo records which provider/model produced a set of vectors and
// their dimensionality. A chunk's vector length must match Dimensions.
type EmbeddingInfo struct {
	Provider   string
	Model      string
	Dimensions int
}

// Zero reports whether no embedding information has been recorded.
func (e EmbeddingInfo) Zero() bool {
	return e.Provider == "" && e.Model == "" && e.Dimensions == 0
}

// Chunk is a contiguous slice of a document's text, the atomic unit of
// embedding and retrieval. Chunks are immutable after creation except for
// re-embedding, which replaces the vector wholesale.
type Chunk struct {
	Id           ID
	DocumentId   ID
	CollectionId ID // denormalized so search scans filter without a join
	Position     int
	Text         string
	Vector       []float32
	StartOffset  int
	EndOffset    int
	Page         int    // 0 when unknown
	Section      string // optional section hint
	Embedding    EmbeddingInfo
	InsertedAt   time.Time
}

// Operation identifies the kind of paid API call in a usage record.
type Operation string

const (
	OpEmbed      Operation = "embed"
	OpRerank     Operation = "rerank"
	OpCompletion Operation = "completion"
)

// PeriodOf returns the budget period key for a point in time, e.g. "2026-08".
// Periods are calendar months in UTC.
func PeriodOf(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// UsageRecord is one append-only entry per paid API call.
type UsageRecord struct {
	Id           ID
	Provider     string
	Operation    Operation
	Units        int
	Cost         float64
	CollectionId ID // 0 when the call is not attributable to a collection
	CreatedAt    time.Time
}

// AlertType distinguishes the 80% warning from the 100% limit alert.
type AlertType string

const (
	AlertWarning AlertType = "warning"
	AlertLimit   AlertType = "limit"
)

// BudgetAlert is raised when period spend crosses a budget threshold.
type BudgetAlert struct {
	Id             ID
	Type           AlertType
	Period         string // budget period key, e.g. "2026-08"
	Threshold      float64
	SpendAtTrigger float64
	Acknowledged   bool
	CreatedAt      time.Time
}

// ScoredChunk is a chunk with a retrieval score attached. The meaning of the
// score depends on the stage that produced it (cosine similarity, BM25, fused).
type ScoredChunk struct {
	Chunk *Chunk
	Score float64
}
