//go:build !unix

package smu

func deviceGone(err error) bool { return false }
