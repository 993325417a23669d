// Package netbridge adapts the gossip core's three output sinks onto a real
// libp2p host: wire encoding, stream transport, reputation application, and
// gossip-topology derivation from the DHT routing table.
package netbridge

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/shurlinet/bifrost-gossip/gossip"
)

// wireMessage is the length-prefixed, zstd-compressed encoding of a
// gossip.BitfieldGossipMessage. Layout: relay_parent (32 bytes) ||
// validator_index (4 bytes, big-endian) || signature_len (2 bytes) ||
// signature || payload_bit_len (4 bytes) || packed payload bytes. The whole
// record is then zstd-compressed before being length-prefixed on the wire;
// the whole pipeline must round-trip byte-exactly.
const maxWireMessageSize = 1 << 20 // 1 MiB compressed-frame ceiling.

var (
	encoderPool = newZstdEncoderPool()
	decoderPool = newZstdDecoderPool()
)

func newZstdEncoderPool() *zstd.Encoder {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		panic(fmt.Sprintf("netbridge: failed to construct zstd encoder: %v", err))
	}
	return enc
}

func newZstdDecoderPool() *zstd.Decoder {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		panic(fmt.Sprintf("netbridge: failed to construct zstd decoder: %v", err))
	}
	return dec
}

// EncodeMessage canonically encodes msg and compresses it with zstd.
func EncodeMessage(msg gossip.BitfieldGossipMessage) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(msg.RelayParent[:])

	var idxBuf [4]byte
	binary.BigEndian.PutUint32(idxBuf[:], msg.SignedAvailability.ValidatorIndex)
	buf.Write(idxBuf[:])

	if len(msg.SignedAvailability.Signature) > 1<<16-1 {
		return nil, fmt.Errorf("encode message: signature too long (%d bytes)", len(msg.SignedAvailability.Signature))
	}
	var sigLenBuf [2]byte
	binary.BigEndian.PutUint16(sigLenBuf[:], uint16(len(msg.SignedAvailability.Signature)))
	buf.Write(sigLenBuf[:])
	buf.Write(msg.SignedAvailability.Signature)

	var bitLenBuf [4]byte
	binary.BigEndian.PutUint32(bitLenBuf[:], uint32(msg.SignedAvailability.Payload.Len()))
	buf.Write(bitLenBuf[:])
	buf.Write(msg.SignedAvailability.Payload.Bytes())

	return encoderPool.EncodeAll(buf.Bytes(), nil), nil
}

// DecodeMessage reverses EncodeMessage.
func DecodeMessage(compressed []byte) (gossip.BitfieldGossipMessage, error) {
	raw, err := decoderPool.DecodeAll(compressed, nil)
	if err != nil {
		return gossip.BitfieldGossipMessage{}, fmt.Errorf("decode message: zstd: %w", err)
	}

	r := bytes.NewReader(raw)
	var msg gossip.BitfieldGossipMessage

	if _, err := io.ReadFull(r, msg.RelayParent[:]); err != nil {
		return gossip.BitfieldGossipMessage{}, fmt.Errorf("decode message: relay parent: %w", err)
	}

	var idxBuf [4]byte
	if _, err := io.ReadFull(r, idxBuf[:]); err != nil {
		return gossip.BitfieldGossipMessage{}, fmt.Errorf("decode message: validator index: %w", err)
	}
	msg.SignedAvailability.ValidatorIndex = binary.BigEndian.Uint32(idxBuf[:])

	var sigLenBuf [2]byte
	if _, err := io.ReadFull(r, sigLenBuf[:]); err != nil {
		return gossip.BitfieldGossipMessage{}, fmt.Errorf("decode message: signature length: %w", err)
	}
	sigLen := binary.BigEndian.Uint16(sigLenBuf[:])
	sig := make([]byte, sigLen)
	if _, err := io.ReadFull(r, sig); err != nil {
		return gossip.BitfieldGossipMessage{}, fmt.Errorf("decode message: signature: %w", err)
	}
	msg.SignedAvailability.Signature = sig

	var bitLenBuf [4]byte
	if _, err := io.ReadFull(r, bitLenBuf[:]); err != nil {
		return gossip.BitfieldGossipMessage{}, fmt.Errorf("decode message: bit length: %w", err)
	}
	bitLen := binary.BigEndian.Uint32(bitLenBuf[:])

	packed := make([]byte, (bitLen+7)/8)
	if _, err := io.ReadFull(r, packed); err != nil {
		return gossip.BitfieldGossipMessage{}, fmt.Errorf("decode message: payload: %w", err)
	}
	msg.SignedAvailability.Payload = gossip.AvailabilityBitfieldFromBytes(uint(bitLen), packed)

	return msg, nil
}

// WriteFrame writes a 4-byte big-endian length prefix followed by payload.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > maxWireMessageSize {
		return fmt.Errorf("write frame: payload of %d bytes exceeds %d byte ceiling", len(payload), maxWireMessageSize)
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("write frame length: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed frame written by WriteFrame.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("read frame length: %w", err)
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxWireMessageSize {
		return nil, fmt.Errorf("read frame: declared length %d exceeds %d byte ceiling", n, maxWireMessageSize)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read frame payload: %w", err)
	}
	return payload, nil
}
