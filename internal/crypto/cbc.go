// Package crypto holds the cipher and digest primitives the vendor protocols share.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Encoding is the transport encoding of ciphertext
type Encoding int

const (
	EncodingBase64 Encoding = iota
	EncodingHex
)

var (
	ErrInvalidPadding    = errors.New("invalid PKCS#7 padding")
	ErrInvalidCiphertext = errors.New("ciphertext is not a multiple of the block size")
)

// NormalizeKey null-pads or truncates secret to exactly size bytes
func NormalizeKey(secret string, size int) []byte {
	key := make([]byte, size)
	copy(key, secret)
	return key
}

// CBC encrypts with AES in CBC mode and PKCS#7 padding
type CBC struct {
	// KeySize is 16 for AES-128 or 32 for AES-256. The IV is always 16 bytes.
	KeySize  int
	Encoding Encoding
}

// Encrypt encrypts plain and returns it in the configured encoding
func (c CBC) Encrypt(plain []byte, key, iv string) (string, error) {
	block, err := aes.NewCipher(NormalizeKey(key, c.KeySize))
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}

	padded := pkcs7Pad(plain, block.BlockSize())
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, NormalizeKey(iv, aes.BlockSize)).CryptBlocks(out, padded)

	if c.Encoding == EncodingHex {
		return hex.EncodeToString(out), nil
	}
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt
func (c CBC) Decrypt(text, key, iv string) ([]byte, error) {
	var (
		raw []byte
		err error
	)
	if c.Encoding == EncodingHex {
		raw, err = hex.DecodeString(strings.TrimSpace(text))
	} else {
		raw, err = base64.StdEncoding.DecodeString(strings.TrimSpace(text))
	}
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	if len(raw) == 0 || len(raw)%aes.BlockSize != 0 {
		return nil, ErrInvalidCiphertext
	}

	block, err := aes.NewCipher(NormalizeKey(key, c.KeySize))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	out := make([]byte, len(raw))
	cipher.NewCBCDecrypter(block, NormalizeKey(iv, aes.BlockSize)).CryptBlocks(out, raw)
	return pkcs7Unpad(out, block.BlockSize())
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(append([]byte(nil), data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrInvalidPadding
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, ErrInvalidPadding
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrInvalidPadding
		}
	}
	return data[:len(data)-n], nil
}
