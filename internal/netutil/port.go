package netutil

import (
	"errors"
	"fmt"
	"net"
)

// PickBindAddr returns the first address in {preferred, candidates...} that
// can be listened on. With autoFallback disabled a busy preferred address is
// an error instead of a reason to try the candidates.
func PickBindAddr(preferred string, candidates []string, autoFallback bool) (string, error) {
	try := make([]string, 0, len(candidates)+1)
	if preferred != "" {
		try = append(try, preferred)
	}
	if autoFallback || preferred == "" {
		try = append(try, candidates...)
	}

	for _, addr := range try {
		ok, err := IsAddrAvailable(addr)
		if err != nil {
			return "", err
		}
		if ok {
			return addr, nil
		}
		if addr == preferred && !autoFallback {
			return "", fmt.Errorf("preferred bind address in use: %s", preferred)
		}
	}

	return "", errors.New("no available bind addresses")
}

// IsAddrAvailable returns true when an address can be listened on.
func IsAddrAvailable(addr string) (bool, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return false, nil
	}
	if closeErr := ln.Close(); closeErr != nil {
		return false, closeErr
	}
	return true, nil
}
