package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPrintHash(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printHash(strings.NewReader("correct-horse\n"), &out))

	hash := strings.TrimSpace(out.String())
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("correct-horse")))
}

func TestPrintHashEmptyInput(t *testing.T) {
	var out bytes.Buffer
	require.Error(t, printHash(strings.NewReader(""), &out))
	require.Error(t, printHash(strings.NewReader("short\n"), &out))
}
