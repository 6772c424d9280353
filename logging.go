package flume

/*
Called to log lifecycle events inside a flume.

An example event might be

	log("closed", "")

which one might log as, for example:

	log.debug(evt, {"regarding":param})
	//debug: closed

Hooks fire outside the flume's locks, so a hook is free to call
back into the flume (though reporting on a flume from inside its
own log hook is a strange hobby).
*/
type LogFn func(evt string, param string)

// SetLogFn installs a lifecycle hook.  Pass nil to silence it again.
// Install hooks before sharing the flume between goroutines.
func (f *Flume) SetLogFn(fn LogFn) {
	f.logFn = fn
}

func (f *Flume) log(evt string, param string) {
	if f.logFn != nil {
		f.logFn(evt, param)
	}
}
