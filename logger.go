package sarama

import (
	"io/ioutil"
	stdLog "log"
)

// StdLogger is used to log error messages. By default, it outputs nothing
// but can be easily set to redirect wherever you want (stdout, a file,
// etc.) by the host application — the logging facility itself is an
// external collaborator per spec.md §1 and this client never makes
// assumptions about its backing store.
type StdLogger interface {
	Print(v ...interface{})
	Printf(format string, v ...interface{})
	Println(v ...interface{})
}

// Logger is the instance of a StdLogger interface that this library logs
// to. By default it is set to discard all log messages via ioutil.Discard,
// but you can set it to redirect wherever you want.
var Logger StdLogger = stdLog.New(ioutil.Discard, "[sarama] ", stdLog.LstdFlags)

// PanicHandler is called for recovering from panics spawned internally by
// this client (in goroutines launched via withRecover). By default, panics
// are not recovered and propagate up the call stack as usual; set this to
// change that behavior.
var PanicHandler func(interface{})
