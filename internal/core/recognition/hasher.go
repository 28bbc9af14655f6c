package recognition

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"time"
)

// ErrWeakFingerprint 無法計算雜湊時回傳的弱指紋，不可用於快取
var ErrWeakFingerprint = errors.New("weak fingerprint, hashing unavailable")

// Hasher 圖片內容指紋
type Hasher struct {
	newHash func() hash.Hash
	now     func() time.Time
}

// NewHasher 創建以 SHA-256 計算指紋的 Hasher
func NewHasher() *Hasher {
	return &Hasher{newHash: sha256.New, now: time.Now}
}

// Hash 回傳內容的十六進位雜湊；雜湊不可用時回傳弱指紋與 ErrWeakFingerprint
func (h *Hasher) Hash(data []byte, fileName string) (fp string, err error) {
	defer func() {
		if r := recover(); r != nil {
			fp, err = h.weak(data, fileName), ErrWeakFingerprint
		}
	}()

	if h.newHash == nil {
		return h.weak(data, fileName), ErrWeakFingerprint
	}
	hasher := h.newHash()
	if hasher == nil {
		return h.weak(data, fileName), ErrWeakFingerprint
	}
	if _, err := hasher.Write(data); err != nil {
		return h.weak(data, fileName), ErrWeakFingerprint
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func (h *Hasher) weak(data []byte, fileName string) string {
	now := time.Now
	if h.now != nil {
		now = h.now
	}
	return fmt.Sprintf("weak:%d:%s:%d", len(data), fileName, now().UnixNano())
}
