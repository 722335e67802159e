package vmtrace

import (
	"log"
	"sync"

	"github.com/sarchlab/vmkern/datarecording"
	"github.com/sarchlab/vmkern/hooking"
)

// LogTracer prints every event.
type LogTracer struct {
	logger *log.Logger
}

// NewLogTracer creates a LogTracer that prints with logger.
func NewLogTracer(logger *log.Logger) *LogTracer {
	return &LogTracer{logger: logger}
}

// Func prints the event.
func (t *LogTracer) Func(ctx hooking.HookCtx) {
	t.logger.Print(Describe(ctx))
}

// DBTracer stores every event as a row of a table.
type DBTracer struct {
	sync.Mutex

	recorder  datarecording.DataRecorder
	tableName string
	seq       uint64
}

// NewDBTracer creates a DBTracer and the table it writes to.
func NewDBTracer(
	recorder datarecording.DataRecorder,
	tableName string,
) *DBTracer {
	recorder.CreateTable(tableName, Event{})

	return &DBTracer{
		recorder:  recorder,
		tableName: tableName,
	}
}

// Func stores the event.
func (t *DBTracer) Func(ctx hooking.HookCtx) {
	e := Describe(ctx)

	t.Lock()
	t.seq++
	e.Seq = t.seq
	t.Unlock()

	t.recorder.InsertData(t.tableName, e)
}

// Flush writes the buffered events.
func (t *DBTracer) Flush() {
	t.recorder.Flush()
}
