// Package transfer runs single-connection HTTP downloads.
//
// Each download is a worker goroutine started with Start. The worker streams
// the response body into "<stem>.tmp.<ext>", renames it to the final name on
// success and reports its progress as Event values on a channel shared by
// all workers of a controller. Control signals (toggle, pause, resume,
// cancel) reach the worker through its Handle.
//
// While active the worker waits on the next body chunk, the next control
// signal and its context at the same time. While paused it waits on control
// signals only and no further body reads are issued.
package transfer
