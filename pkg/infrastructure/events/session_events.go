package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AllocationAddedEvent   = "allocation.added"
	AllocationRemovedEvent = "allocation.removed"
	AllocationUpdatedEvent = "allocation.updated"

	WeighingRecordsInsertedEvent = "weighing.inserted"
	WeighingRecordRemovedEvent   = "weighing.removed"
	WeighingRecordUpdatedEvent   = "weighing.updated"
	ReconciliationFlushedEvent   = "weighing.flushed"

	SessionSubmittedEvent = "session.submitted"
	SubmissionFailedEvent = "session.submit_failed"
)

// AllSessionEvents lists every event type a session publishes
var AllSessionEvents = []string{
	AllocationAddedEvent,
	AllocationRemovedEvent,
	AllocationUpdatedEvent,
	WeighingRecordsInsertedEvent,
	WeighingRecordRemovedEvent,
	WeighingRecordUpdatedEvent,
	ReconciliationFlushedEvent,
	SessionSubmittedEvent,
	SubmissionFailedEvent,
}

type AllocationAdded struct {
	RowKey   uuid.UUID `json:"row_key"`
	ParentID int64     `json:"parent_id,omitempty"`
}

type AllocationRemoved struct {
	RowKey   uuid.UUID       `json:"row_key"`
	Returned decimal.Decimal `json:"returned"`
}

type AllocationUpdated struct {
	RowKey uuid.UUID `json:"row_key"`
	Field  string    `json:"field"`
}

type WeighingRecordsInserted struct {
	RowKeys  []uuid.UUID `json:"row_keys"`
	Deferred bool        `json:"deferred"`
}

type WeighingRecordRemoved struct {
	RowKey uuid.UUID `json:"row_key"`
}

type WeighingRecordUpdated struct {
	RowKey uuid.UUID `json:"row_key"`
	Field  string    `json:"field"`
}

type ReconciliationFlushed struct {
	Records int `json:"records"`
}

// Session kinds carried by submission events
const (
	PlanSession     = "plan"
	WeighingSession = "weighing"
)

type SessionSubmitted struct {
	Kind     string        `json:"kind"`
	Rows     int           `json:"rows"`
	Duration time.Duration `json:"duration"`
}

type SubmissionFailed struct {
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

func NewAllocationAddedEvent(stream string, rowKey uuid.UUID, parentID int64, at time.Time) Event {
	return NewEvent(AllocationAddedEvent, stream, AllocationAdded{RowKey: rowKey, ParentID: parentID}, at)
}

func NewAllocationRemovedEvent(stream string, rowKey uuid.UUID, returned decimal.Decimal, at time.Time) Event {
	return NewEvent(AllocationRemovedEvent, stream, AllocationRemoved{RowKey: rowKey, Returned: returned}, at)
}

func NewAllocationUpdatedEvent(stream string, rowKey uuid.UUID, field string, at time.Time) Event {
	return NewEvent(AllocationUpdatedEvent, stream, AllocationUpdated{RowKey: rowKey, Field: field}, at)
}

func NewWeighingRecordsInsertedEvent(stream string, rowKeys []uuid.UUID, deferred bool, at time.Time) Event {
	return NewEvent(WeighingRecordsInsertedEvent, stream, WeighingRecordsInserted{RowKeys: rowKeys, Deferred: deferred}, at)
}

func NewWeighingRecordRemovedEvent(stream string, rowKey uuid.UUID, at time.Time) Event {
	return NewEvent(WeighingRecordRemovedEvent, stream, WeighingRecordRemoved{RowKey: rowKey}, at)
}

func NewWeighingRecordUpdatedEvent(stream string, rowKey uuid.UUID, field string, at time.Time) Event {
	return NewEvent(WeighingRecordUpdatedEvent, stream, WeighingRecordUpdated{RowKey: rowKey, Field: field}, at)
}

func NewReconciliationFlushedEvent(stream string, records int, at time.Time) Event {
	return NewEvent(ReconciliationFlushedEvent, stream, ReconciliationFlushed{Records: records}, at)
}

func NewSessionSubmittedEvent(stream, kind string, rows int, took time.Duration, at time.Time) Event {
	return NewEvent(SessionSubmittedEvent, stream, SessionSubmitted{Kind: kind, Rows: rows, Duration: took}, at)
}

func NewSubmissionFailedEvent(stream, kind, reason string, at time.Time) Event {
	return NewEvent(SubmissionFailedEvent, stream, SubmissionFailed{Kind: kind, Reason: reason}, at)
}
