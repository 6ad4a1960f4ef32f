package respond

import "errors"

// ErrHeadersAlreadySent names the case where headers were already flushed
// for this request. SetChunked and SetEventStream report that case by
// returning false, without writing to the socket; no function in this
// package returns ErrHeadersAlreadySent.
var ErrHeadersAlreadySent = errors.New("respond: headers already sent")

// errChunkedTerminatorFailed is internal: it signals that flushing a
// chunked stream's final zero-length chunk (or the headers SendChunk
// flushes first, if they hadn't been sent yet) aborted. Response returns
// it when SendChunk's result is ConnAbort: always on such a failure when
// no Coro is bound; with a Coro bound, SendChunk first yields ConnAbort to
// the host, and Response returns this error only if the host then resumes
// the coroutine with ConnAbort.
var errChunkedTerminatorFailed = errors.New("respond: failed to terminate chunked response")
