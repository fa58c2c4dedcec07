package vke

import (
	"fmt"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Status classifies the outcome of acquiring or presenting a swap chain
// image.
type Status int

const (
	StatusSuccess Status = iota
	// StatusSuboptimal means the surface still works but no longer matches
	// the swap chain exactly.
	StatusSuboptimal
	// StatusOutOfDate means the swap chain can no longer be used.
	StatusOutOfDate
	StatusFatal
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusSuboptimal:
		return "suboptimal"
	case StatusOutOfDate:
		return "out of date"
	case StatusFatal:
		return "fatal"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Result is returned by the swap chain operations that can report a stale
// surface. Only StatusFatal carries a Cause.
type Result struct {
	Status Status
	Cause  error
}

func (r Result) Err() error {
	if r.Status != StatusFatal {
		return nil
	}
	return r.Cause
}

func resultOf(res vk.Result, op string) Result {
	switch res {
	case vk.Success:
		return Result{Status: StatusSuccess}
	case vk.Suboptimal:
		return Result{Status: StatusSuboptimal}
	case vk.ErrorOutOfDate:
		return Result{Status: StatusOutOfDate}
	}
	err := vkError(res, op)
	if err == nil {
		err = errors.Newf("%s: unexpected result %d", op, int32(res))
	}
	return Result{Status: StatusFatal, Cause: err}
}

func fatal(err error) Result {
	return Result{Status: StatusFatal, Cause: err}
}
