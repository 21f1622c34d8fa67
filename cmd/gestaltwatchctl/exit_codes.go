package main

const (
	exitCodeSuccess = 0
	exitCodeUsage   = 1
	exitCodeReject  = 2
	exitCodeNetwork = 3
)
