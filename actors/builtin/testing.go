package builtin

import (
	"fmt"
)

// MessageAccumulator accumulates a sequence of messages (e.g. validation failures).
type MessageAccumulator struct {
	// Accumulated messages.
	// This is a pointer to support accumulators derived from #WithPrefix sharing the message list.
	msgs *[]string
	// Optional prefix to all new messages, e.g. describing higher level context.
	prefix string
}

func (ma *MessageAccumulator) IsEmpty() bool {
	return ma.msgs == nil || len(*ma.msgs) == 0
}

func (ma *MessageAccumulator) Messages() []string {
	if ma.msgs == nil {
		return nil
	}
	return (*ma.msgs)[:]
}

// WithPrefix returns a new accumulator that shares the underlying message list
// but prefixes new messages with a formatted string.
func (ma *MessageAccumulator) WithPrefix(format string, args ...interface{}) *MessageAccumulator {
	ma.initialize()
	return &MessageAccumulator{
		msgs:   ma.msgs,
		prefix: ma.prefix + fmt.Sprintf(format, args...),
	}
}

// Add adds a message to the accumulator.
func (ma *MessageAccumulator) Add(msg string) {
	ma.initialize()
	*ma.msgs = append(*ma.msgs, ma.prefix+msg)
}

// Addf adds a formatted message to the accumulator.
func (ma *MessageAccumulator) Addf(format string, args ...interface{}) {
	ma.Add(fmt.Sprintf(format, args...))
}

// Require adds a message if predicate is false.
func (ma *MessageAccumulator) Require(predicate bool, format string, args ...interface{}) {
	if !predicate {
		ma.Addf(format, args...)
	}
}

// RequireNoError adds a message if err is non-nil.
func (ma *MessageAccumulator) RequireNoError(err error, format string, args ...interface{}) {
	if err != nil {
		args = append(args, err)
		ma.Addf(format+": %v", args...)
	}
}

func (ma *MessageAccumulator) initialize() {
	if ma.msgs == nil {
		ma.msgs = &[]string{}
	}
}
