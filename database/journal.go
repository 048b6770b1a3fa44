// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package database

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/blinklabs-io/metavault/database/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Receipt is one entry in the append-only journal of committed operations.
// Each receipt commits to its predecessor through PrevHash
type Receipt struct {
	cbor.StructAsArray
	Seq       uint64
	Op        string
	Caller    []byte
	Timestamp int64
	Data      []byte
	PrevHash  []byte
	Hash      []byte
}

type journalHead struct {
	cbor.StructAsArray
	NextSeq uint64
	Hash    []byte
}

// JournalHead describes the tip of the receipt journal
type JournalHead struct {
	NextSeq uint64
	Hash    common.Hash
}

func receiptHash(r *Receipt) common.Hash {
	var seqBytes, tsBytes [8]byte
	binary.BigEndian.PutUint64(seqBytes[:], r.Seq)
	binary.BigEndian.PutUint64(tsBytes[:], uint64(r.Timestamp)) //nolint:gosec
	return crypto.Keccak256Hash(
		r.PrevHash,
		seqBytes[:],
		[]byte(r.Op),
		r.Caller,
		tsBytes[:],
		r.Data,
	)
}

func journalHeadTxn(txn *Txn) (JournalHead, error) {
	if txn == nil {
		return JournalHead{}, types.ErrNilTxn
	}
	blob := txn.DB().Blob()
	if blob == nil {
		return JournalHead{}, types.ErrBlobStoreUnavailable
	}
	val, err := blob.Get(txn.Blob(), []byte(types.ReceiptHeadBlobKey))
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return JournalHead{}, nil
		}
		return JournalHead{}, err
	}
	var tmpHead journalHead
	if _, err := cbor.Decode(val, &tmpHead); err != nil {
		return JournalHead{}, fmt.Errorf("decode journal head: %w", err)
	}
	return JournalHead{
		NextSeq: tmpHead.NextSeq,
		Hash:    common.BytesToHash(tmpHead.Hash),
	}, nil
}

// JournalHead returns the current journal tip. The zero hash is returned for
// an empty journal
func (d *Database) JournalHead(txn *Txn) (JournalHead, error) {
	if txn != nil {
		return journalHeadTxn(txn)
	}
	var ret JournalHead
	err := d.View(func(txn *Txn) error {
		var err error
		ret, err = journalHeadTxn(txn)
		return err
	})
	return ret, err
}

// AppendReceipt records an operation in the journal as part of txn. data is
// CBOR encoded before being stored
func (d *Database) AppendReceipt(
	op string,
	caller common.Address,
	timestamp int64,
	data any,
	txn *Txn,
) (*Receipt, error) {
	if txn == nil {
		return nil, types.ErrNilTxn
	}
	blob := d.Blob()
	if blob == nil {
		return nil, types.ErrBlobStoreUnavailable
	}
	head, err := journalHeadTxn(txn)
	if err != nil {
		return nil, err
	}
	var dataBytes []byte
	if data != nil {
		dataBytes, err = cbor.Encode(data)
		if err != nil {
			return nil, fmt.Errorf("encode receipt data: %w", err)
		}
	}
	ret := &Receipt{
		Seq:       head.NextSeq,
		Op:        op,
		Caller:    caller.Bytes(),
		Timestamp: timestamp,
		Data:      dataBytes,
		PrevHash:  head.Hash.Bytes(),
	}
	ret.Hash = receiptHash(ret).Bytes()
	receiptBytes, err := cbor.Encode(ret)
	if err != nil {
		return nil, fmt.Errorf("encode receipt: %w", err)
	}
	if err := blob.Set(txn.Blob(), types.ReceiptBlobKey(ret.Seq), receiptBytes); err != nil {
		return nil, err
	}
	headBytes, err := cbor.Encode(&journalHead{
		NextSeq: ret.Seq + 1,
		Hash:    ret.Hash,
	})
	if err != nil {
		return nil, fmt.Errorf("encode journal head: %w", err)
	}
	if err := blob.Set(txn.Blob(), []byte(types.ReceiptHeadBlobKey), headBytes); err != nil {
		return nil, err
	}
	return ret, nil
}

// Receipts returns up to limit receipts starting at sequence number from
func (d *Database) Receipts(from uint64, limit int) ([]Receipt, error) {
	var ret []Receipt
	err := d.View(func(txn *Txn) error {
		prefix := []byte(types.ReceiptBlobKeyPrefix)
		iter := d.Blob().NewIterator(
			txn.Blob(),
			types.BlobIteratorOptions{Prefix: prefix},
		)
		defer iter.Close()
		for iter.Seek(types.ReceiptBlobKey(from)); iter.ValidForPrefix(prefix); iter.Next() {
			if limit > 0 && len(ret) >= limit {
				break
			}
			val, err := iter.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var tmpReceipt Receipt
			if _, err := cbor.Decode(val, &tmpReceipt); err != nil {
				return fmt.Errorf("decode receipt: %w", err)
			}
			ret = append(ret, tmpReceipt)
		}
		return iter.Err()
	})
	return ret, err
}

// VerifyJournal walks the whole journal and checks the hash chain
func (d *Database) VerifyJournal() error {
	receipts, err := d.Receipts(0, 0)
	if err != nil {
		return err
	}
	var prev common.Hash
	for idx := range receipts {
		r := &receipts[idx]
		if r.Seq != uint64(idx) { //nolint:gosec
			return fmt.Errorf("receipt %d: unexpected sequence %d", idx, r.Seq)
		}
		if common.BytesToHash(r.PrevHash) != prev {
			return fmt.Errorf("receipt %d: previous hash mismatch", r.Seq)
		}
		if receiptHash(r) != common.BytesToHash(r.Hash) {
			return fmt.Errorf("receipt %d: hash mismatch", r.Seq)
		}
		prev = common.BytesToHash(r.Hash)
	}
	head, err := d.JournalHead(nil)
	if err != nil {
		return err
	}
	if head.Hash != prev {
		return errors.New("journal head does not match last receipt")
	}
	return nil
}
