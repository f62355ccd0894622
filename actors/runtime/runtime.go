package runtime

import (
	"context"

	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/cbor"
	"github.com/filecoin-project/go-state-types/exitcode"
	rtt "github.com/filecoin-project/go-state-types/rt"
	cid "github.com/ipfs/go-cid"
)

// Runtime is the VM's internal runtime object.
// This is everything that is accessible to actors, beyond parameters.
type Runtime interface {
	// Information related to the current message being executed.
	Message() Message

	// The current chain epoch number. The genesis block has epoch zero.
	CurrEpoch() abi.ChainEpoch

	// Validates the caller against some predicate.
	// Exported actor methods must invoke exactly one caller validation before returning.
	ValidateImmediateCallerAcceptAny()
	ValidateImmediateCallerIs(addrs ...addr.Address)
	ValidateImmediateCallerType(types ...cid.Cid)

	// The balance of the receiver.
	CurrentBalance() abi.TokenAmount

	// Resolves an address of any protocol to an ID address (via the init actor's table).
	ResolveAddress(address addr.Address) (addr.Address, bool)

	// Look up the code ID at an actor address.
	GetActorCodeCID(addr addr.Address) (cid.Cid, bool)

	// Provides a handle for the actor's state object.
	State() StateHandle

	// Provides the raw IPLD storage underlying the state.
	Store() Store

	// Sends a message to another actor, returning the exit code and return value envelope.
	// If the invoked method does not return successfully, its state changes
	// (and that of any messages it sent in turn) will be rolled back.
	Send(toAddr addr.Address, methodNum abi.MethodNum, params cbor.Marshaler, value abi.TokenAmount) (SendReturn, exitcode.ExitCode)

	// Halts execution upon an error from which the receiver cannot recover.
	// The caller will receive the exitcode and an empty return value.
	// State changes made within this call will be rolled back.
	// This method does not return.
	Abortf(errExitCode exitcode.ExitCode, msg string, args ...interface{})

	// Publishes an event for external observers and indexers.
	// Events are not observable by actor code and carry no consensus weight.
	EmitEvent(tag string, payload cbor.Marshaler)

	// Log statements for diagnostic purposes.
	Log(level rtt.LogLevel, msg string, args ...interface{})

	// Provides a Go context for use by HAMT, etc.
	// The VM is intended to provide an idealised machine abstraction, with infinite storage etc,
	// so this context should not be used by actor code directly.
	Context() context.Context
}

// Message contains information available to the actor about the executing message.
type Message interface {
	// The address of the immediate calling actor. Always an ID-address.
	Caller() addr.Address

	// The address of the actor receiving the message. Always an ID-address.
	Receiver() addr.Address

	// The value attached to the message being processed, implicitly added to
	// CurrentBalance() before method invocation.
	ValueReceived() abi.TokenAmount
}

// StateHandle provides mutable, exclusive access to actor state.
type StateHandle interface {
	// Create initializes the state object.
	// This is only valid in a constructor function and when the state has not yet been initialized.
	Create(obj cbor.Marshaler)

	// Readonly loads a readonly copy of the state into the argument.
	// Any modification to the state is illegal and will result in an abort.
	Readonly(obj cbor.Unmarshaler)

	// Transaction loads a mutable version of the state into the `obj` argument and protects
	// the execution from side effects (including message send).
	// The second argument is a function which allows the caller to mutate the state.
	// Either the entire transaction is applied, or on abort none of it is.
	Transaction(obj cbor.Er, f func())
}

// Store defines the storage module exposed to actors.
type Store interface {
	// Get retrieves and deserializes the object at c into o, returning whether it was found.
	Get(c cid.Cid, o cbor.Unmarshaler) bool
	// Put serializes and stores an object, returning its content address.
	Put(x cbor.Marshaler) cid.Cid
}

// SendReturn is the return value of a message send.
type SendReturn interface {
	Into(o cbor.Unmarshaler) error
}

// VMActor is a concrete implementation of an actor, for registration with a VM
// or the method dispatch table.
type VMActor interface {
	// Exports returns a method-number-indexed dispatch table.
	Exports() []interface{}
	// Code returns the code ID for this actor.
	Code() cid.Cid
	// State returns a new instance of the actor's state object.
	State() cbor.Er
}
