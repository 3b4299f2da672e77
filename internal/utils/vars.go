package utils

import "errors"

const DefaultBufferSize = 1024 * 32 // 32KB read buffer
const LogFile = ".pulldown.log"
const TempMarker = ".tmp"

// TempLedger lists, per download directory, temp files left by failed downloads.
const TempLedger = ".pulldown-partial"

var ErrEmptyBatch = errors.New("batch file contains no links")
