package rtedoc

import (
	"bytes"
	"compress/zlib"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Envelope layout, little endian:
//
//	magic | version u16 | flags u16 | salt [16] | nonce [12] | payload len u64 | payload
const (
	secureMagic     = "TOPNOTE_SECURE"
	secureVersionV1 = uint16(1)
	secureFlagComp  = uint16(1 << 0)
	secureFlagEnc   = uint16(1 << 1)
	secureSaltSize  = 16
	secureNonceSize = 12
	kdfIterations   = 200000

	offVersion   = len(secureMagic)
	offFlags     = offVersion + 2
	offSalt      = offFlags + 2
	offNonce     = offSalt + secureSaltSize
	offLength    = offNonce + secureNonceSize
	secureHeader = offLength + 8
)

type EnvelopeInfo struct {
	Wrapped     bool
	Compressed  bool
	Encrypted   bool
	EnvelopeVer uint16
}

// InspectEnvelope reports whether the file at path is wrapped and how. Plain
// JSON and plain text files report Wrapped=false.
func InspectEnvelope(path string) (EnvelopeInfo, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return EnvelopeInfo{}, err
	}
	return inspectEnvelopeBytes(b)
}

func isSecureEnvelope(b []byte) bool {
	return bytes.HasPrefix(b, []byte(secureMagic))
}

func inspectEnvelopeBytes(b []byte) (EnvelopeInfo, error) {
	var info EnvelopeInfo
	if !isSecureEnvelope(b) {
		return info, nil
	}
	if len(b) < secureHeader {
		return info, ErrInvalidSecureFile
	}
	version := binary.LittleEndian.Uint16(b[offVersion:offFlags])
	if version != secureVersionV1 {
		return info, fmt.Errorf("%w: secure envelope version %d", ErrUnsupportedVersion, version)
	}
	flags := binary.LittleEndian.Uint16(b[offFlags:offSalt])
	info.Wrapped = true
	info.Compressed = flags&secureFlagComp != 0
	info.Encrypted = flags&secureFlagEnc != 0
	info.EnvelopeVer = version
	return info, nil
}

func encodeSecureEnvelope(payload []byte, opts SaveOptions) ([]byte, error) {
	var flags uint16
	var err error
	if opts.Compression {
		flags |= secureFlagComp
		if payload, err = compressBytes(payload); err != nil {
			return nil, err
		}
	}

	salt := make([]byte, secureSaltSize)
	nonce := make([]byte, secureNonceSize)
	if opts.Encryption.Enabled {
		flags |= secureFlagEnc
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return nil, err
		}
		if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
			return nil, err
		}
		gcm, err := newGCM(opts.Encryption.Password, salt)
		if err != nil {
			return nil, err
		}
		payload = gcm.Seal(nil, nonce, payload, nil)
	}

	out := make([]byte, secureHeader, secureHeader+len(payload))
	copy(out, secureMagic)
	binary.LittleEndian.PutUint16(out[offVersion:], secureVersionV1)
	binary.LittleEndian.PutUint16(out[offFlags:], flags)
	copy(out[offSalt:offNonce], salt)
	copy(out[offNonce:offLength], nonce)
	binary.LittleEndian.PutUint64(out[offLength:], uint64(len(payload)))
	return append(out, payload...), nil
}

func decodeSecureEnvelope(b []byte, opts LoadOptions) ([]byte, error) {
	info, err := inspectEnvelopeBytes(b)
	if err != nil {
		return nil, err
	}
	if !info.Wrapped {
		return nil, ErrInvalidSecureFile
	}
	if uint64(len(b)-secureHeader) != binary.LittleEndian.Uint64(b[offLength:secureHeader]) {
		return nil, ErrInvalidSecureFile
	}
	payload := append([]byte(nil), b[secureHeader:]...)

	if info.Encrypted {
		if strings.TrimSpace(opts.Password) == "" {
			return nil, ErrPasswordRequired
		}
		gcm, err := newGCM(opts.Password, b[offSalt:offNonce])
		if err != nil {
			return nil, err
		}
		payload, err = gcm.Open(nil, b[offNonce:offLength], payload, nil)
		if err != nil {
			return nil, ErrInvalidPassword
		}
	}
	if info.Compressed {
		if payload, err = decompressBytes(payload); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSecureFile, err)
		}
	}
	return payload, nil
}

func newGCM(password string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(password), salt, kdfIterations, 32, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func compressBytes(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, zlib.BestSpeed)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(in); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressBytes(in []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(in))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
