package jvm

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/chazu/jbridge/jni"
)

// ErrWorkerStopped is returned by Worker.Do after Stop.
var ErrWorkerStopped = errors.New("jvm: worker stopped")

// workRequest is a unit of work run on the worker's thread.
type workRequest struct {
	fn   func(*Env) error
	done chan error
}

// Worker serializes calls through one goroutine locked to an OS thread
// that stays attached to the VM for the worker's lifetime. It avoids an
// attach and detach per call when many short calls come from goroutines
// the runtime does not know.
type Worker struct {
	vm       *VM
	requests chan workRequest
	quit     chan struct{}
	stopped  chan struct{}
	started  chan error
	stop     sync.Once
}

// NewWorker starts a worker and attaches its thread.
func (vm *VM) NewWorker() (*Worker, error) {
	w := &Worker{
		vm:       vm,
		requests: make(chan workRequest, 64),
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
		started:  make(chan error, 1),
	}
	go w.loop()
	if err := <-w.started; err != nil {
		return nil, err
	}
	return w, nil
}

// loop processes requests sequentially on the attached thread.
func (w *Worker) loop() {
	defer close(w.stopped)
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	raw, status := w.vm.raw.AttachCurrentThread()
	if status != jni.OK {
		w.started <- fmt.Errorf("jvm: worker attach: status %d", status)
		return
	}
	log.Debugf("vm %s: worker attached", w.vm.ID)
	defer func() {
		w.vm.raw.DetachCurrentThread()
		log.Debugf("vm %s: worker detached", w.vm.ID)
	}()
	w.started <- nil

	for {
		select {
		case req := <-w.requests:
			req.done <- w.execute(raw, req.fn)
		case <-w.quit:
			return
		}
	}
}

// execute runs fn in its own scope, recovering from panics.
func (w *Worker) execute(raw jni.Env, fn func(*Env) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("jvm: worker request panicked: %v", r)
			if raw.ExceptionCheck() {
				raw.ExceptionClear()
			}
		}
	}()
	return w.vm.run(raw, fn)
}

// Do runs fn on the worker's thread and blocks until it completes. Locals
// obtained inside fn die when it returns; pass results out as Go values or
// Globals.
func (w *Worker) Do(fn func(env *Env) error) error {
	req := workRequest{fn: fn, done: make(chan error, 1)}
	select {
	case w.requests <- req:
	case <-w.quit:
		return ErrWorkerStopped
	}
	select {
	case err := <-req.done:
		return err
	case <-w.stopped:
		select {
		case err := <-req.done:
			return err
		default:
			return ErrWorkerStopped
		}
	}
}

// Stop detaches the worker's thread and ends its goroutine. Requests
// already queued are abandoned.
func (w *Worker) Stop() {
	w.stop.Do(func() { close(w.quit) })
	<-w.stopped
}
