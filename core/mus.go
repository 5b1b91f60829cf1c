package core

// Hand-maintained MUS serializers for the persisted domain types. The type set
// is small and stable, so these are written out rather than generated; the
// encoding is plain MUS (varint numbers, length-prefixed strings, slices and
// maps, timestamps as UnixMicro).

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// IDMUS serializes core.ID values.
var IDMUS = idMUS{}

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	u, n, err := varint.Uint64.Unmarshal(bs)
	return ID(u), n, err
}

func (idMUS) Size(v ID) int {
	return varint.Uint64.Size(uint64(v))
}

// timestamps are stored as UnixMicro, matching the precision the engine needs
// for recency ordering.

func marshalTime(v time.Time, bs []byte) (n int) {
	if v.IsZero() {
		return varint.Int64.Marshal(0, bs)
	}
	return varint.Int64.Marshal(v.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (v time.Time, n int, err error) {
	micro, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	if micro == 0 {
		return time.Time{}, n, nil
	}
	return time.UnixMicro(micro).UTC(), n, nil
}

func sizeTime(v time.Time) int {
	if v.IsZero() {
		return varint.Int64.Size(0)
	}
	return varint.Int64.Size(v.UnixMicro())
}

func marshalFloats(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += varint.Float32.Marshal(f, bs[n:])
	}
	return n
}

func unmarshalFloats(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length == 0 {
		return nil, n, nil
	}
	v = make([]float32, length)
	for i := 0; i < length; i++ {
		var n1 int
		v[i], n1, err = varint.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func sizeFloats(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += varint.Float32.Size(f)
	}
	return size
}

func marshalStringMap(v map[string]string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for key, val := range v {
		n += ord.String.Marshal(key, bs[n:])
		n += ord.String.Marshal(val, bs[n:])
	}
	return n
}

func unmarshalStringMap(bs []byte) (v map[string]string, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length == 0 {
		return nil, n, nil
	}
	v = make(map[string]string, length)
	for i := 0; i < length; i++ {
		var (
			key, val string
			n1       int
		)
		key, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		val, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		v[key] = val
	}
	return v, n, nil
}

func sizeStringMap(v map[string]string) (size int) {
	size = varint.Int.Size(len(v))
	for key, val := range v {
		size += ord.String.Size(key)
		size += ord.String.Size(val)
	}
	return size
}

// EmbeddingInfoMUS serializes EmbeddingInfo values.
var EmbeddingInfoMUS = embeddingInfoMUS{}

type embeddingInfoMUS struct{}

func (embeddingInfoMUS) Marshal(v EmbeddingInfo, bs []byte) (n int) {
	n = ord.String.Marshal(v.Provider, bs)
	n += ord.String.Marshal(v.Model, bs[n:])
	n += varint.Int.Marshal(v.Dimensions, bs[n:])
	return n
}

func (embeddingInfoMUS) Unmarshal(bs []byte) (v EmbeddingInfo, n int, err error) {
	var n1 int
	v.Provider, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return v, n, err
	}
	v.Model, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.Dimensions, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	return v, n, err
}

func (embeddingInfoMUS) Size(v EmbeddingInfo) int {
	return ord.String.Size(v.Provider) + ord.String.Size(v.Model) + varint.Int.Size(v.Dimensions)
}

// CollectionMUS serializes Collection values.
var CollectionMUS = collectionMUS{}

type collectionMUS struct{}

func (collectionMUS) Marshal(v Collection, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Name, bs[n:])
	n += ord.String.Marshal(v.Description, bs[n:])
	n += ord.Bool.Marshal(v.Personal, bs[n:])
	n += marshalTime(v.InsertedAt, bs[n:])
	return n
}

func (collectionMUS) Unmarshal(bs []byte) (v Collection, n int, err error) {
	var n1 int
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return v, n, err
	}
	v.Name, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.Description, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.Personal, n1, err = ord.Bool.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.InsertedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	return v, n, err
}

func (collectionMUS) Size(v Collection) int {
	return IDMUS.Size(v.Id) + ord.String.Size(v.Name) + ord.String.Size(v.Description) +
		ord.Bool.Size(v.Personal) + sizeTime(v.InsertedAt)
}

// DocumentMUS serializes Document values.
var DocumentMUS = documentMUS{}

type documentMUS struct{}

func (documentMUS) Marshal(v Document, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += IDMUS.Marshal(v.CollectionId, bs[n:])
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.ContentType, bs[n:])
	n += varint.Int.Marshal(int(v.Status), bs[n:])
	n += ord.String.Marshal(v.Error, bs[n:])
	n += marshalStringMap(v.Metadata, bs[n:])
	n += EmbeddingInfoMUS.Marshal(v.Embedding, bs[n:])
	n += marshalTime(v.InsertedAt, bs[n:])
	n += marshalTime(v.UpdatedAt, bs[n:])
	return n
}

func (documentMUS) Unmarshal(bs []byte) (v Document, n int, err error) {
	var n1 int
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return v, n, err
	}
	v.CollectionId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.ContentType, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	var status int
	status, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.Status = DocumentStatus(status)
	v.Error, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.Metadata, n1, err = unmarshalStringMap(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.Embedding, n1, err = EmbeddingInfoMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.InsertedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.UpdatedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	return v, n, err
}

func (documentMUS) Size(v Document) int {
	return IDMUS.Size(v.Id) + IDMUS.Size(v.CollectionId) + ord.String.Size(v.Title) +
		ord.String.Size(v.ContentType) + varint.Int.Size(int(v.Status)) +
		ord.String.Size(v.Error) + sizeStringMap(v.Metadata) +
		EmbeddingInfoMUS.Size(v.Embedding) + sizeTime(v.InsertedAt) + sizeTime(v.UpdatedAt)
}

// ChunkMUS serializes Chunk values.
var ChunkMUS = chunkMUS{}

type chunkMUS struct{}

func (chunkMUS) Marshal(v Chunk, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += IDMUS.Marshal(v.DocumentId, bs[n:])
	n += IDMUS.Marshal(v.CollectionId, bs[n:])
	n += varint.Int.Marshal(v.Position, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += marshalFloats(v.Vector, bs[n:])
	n += varint.Int.Marshal(v.StartOffset, bs[n:])
	n += varint.Int.Marshal(v.EndOffset, bs[n:])
	n += varint.Int.Marshal(v.Page, bs[n:])
	n += ord.String.Marshal(v.Section, bs[n:])
	n += EmbeddingInfoMUS.Marshal(v.Embedding, bs[n:])
	n += marshalTime(v.InsertedAt, bs[n:])
	return n
}

func (chunkMUS) Unmarshal(bs []byte) (v Chunk, n int, err error) {
	var n1 int
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return v, n, err
	}
	v.DocumentId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.CollectionId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.Position, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.Vector, n1, err = unmarshalFloats(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.StartOffset, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.EndOffset, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.Page, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.Section, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.Embedding, n1, err = EmbeddingInfoMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.InsertedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	return v, n, err
}

func (chunkMUS) Size(v Chunk) int {
	return IDMUS.Size(v.Id) + IDMUS.Size(v.DocumentId) + IDMUS.Size(v.CollectionId) +
		varint.Int.Size(v.Position) + ord.String.Size(v.Text) + sizeFloats(v.Vector) +
		varint.Int.Size(v.StartOffset) + varint.Int.Size(v.EndOffset) +
		varint.Int.Size(v.Page) + ord.String.Size(v.Section) +
		EmbeddingInfoMUS.Size(v.Embedding) + sizeTime(v.InsertedAt)
}

// UsageRecordMUS serializes UsageRecord values.
var UsageRecordMUS = usageRecordMUS{}

type usageRecordMUS struct{}

func (usageRecordMUS) Marshal(v UsageRecord, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Provider, bs[n:])
	n += ord.String.Marshal(string(v.Operation), bs[n:])
	n += varint.Int.Marshal(v.Units, bs[n:])
	n += varint.Float64.Marshal(v.Cost, bs[n:])
	n += IDMUS.Marshal(v.CollectionId, bs[n:])
	n += marshalTime(v.CreatedAt, bs[n:])
	return n
}

func (usageRecordMUS) Unmarshal(bs []byte) (v UsageRecord, n int, err error) {
	var n1 int
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return v, n, err
	}
	v.Provider, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	var op string
	op, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.Operation = Operation(op)
	v.Units, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.Cost, n1, err = varint.Float64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.CollectionId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.CreatedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	return v, n, err
}

func (usageRecordMUS) Size(v UsageRecord) int {
	return IDMUS.Size(v.Id) + ord.String.Size(v.Provider) + ord.String.Size(string(v.Operation)) +
		varint.Int.Size(v.Units) + varint.Float64.Size(v.Cost) +
		IDMUS.Size(v.CollectionId) + sizeTime(v.CreatedAt)
}

// BudgetAlertMUS serializes BudgetAlert values.
var BudgetAlertMUS = budgetAlertMUS{}

type budgetAlertMUS struct{}

func (budgetAlertMUS) Marshal(v BudgetAlert, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(string(v.Type), bs[n:])
	n += ord.String.Marshal(v.Period, bs[n:])
	n += varint.Float64.Marshal(v.Threshold, bs[n:])
	n += varint.Float64.Marshal(v.SpendAtTrigger, bs[n:])
	n += ord.Bool.Marshal(v.Acknowledged, bs[n:])
	n += marshalTime(v.CreatedAt, bs[n:])
	return n
}

func (budgetAlertMUS) Unmarshal(bs []byte) (v BudgetAlert, n int, err error) {
	var n1 int
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return v, n, err
	}
	var alertType string
	alertType, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.Type = AlertType(alertType)
	v.Period, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.Threshold, n1, err = varint.Float64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.SpendAtTrigger, n1, err = varint.Float64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.Acknowledged, n1, err = ord.Bool.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.CreatedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	return v, n, err
}

func (budgetAlertMUS) Size(v BudgetAlert) int {
	return IDMUS.Size(v.Id) + ord.String.Size(string(v.Type)) + ord.String.Size(v.Period) +
		varint.Float64.Size(v.Threshold) + varint.Float64.Size(v.SpendAtTrigger) +
		ord.Bool.Size(v.Acknowledged) + sizeTime(v.CreatedAt)
}
