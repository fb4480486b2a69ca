// Package bzz implements chunk addressing and authentication for Swarm,
// a content-addressed distributed storage network.
//
// Everything stored in Swarm is stored as a _chunk_:
// up to 4096 bytes of payload,
// prefixed with an eight-byte _span_ giving the length of the data the chunk represents.
// Every chunk has a 32-byte address.
//
// There are two ways to address a chunk.
//
// A content-addressed chunk
// (package cac)
// is addressed by its Binary Merkle Tree hash
// (package bmt):
// the payload is zero-padded to 4096 bytes,
// hashed pairwise with Keccak-256 down to a single 32-byte root,
// and that root is hashed once more together with the span.
// Anyone holding the chunk can recompute its address,
// so nobody needs to trust whoever handed it over.
//
// A single-owner chunk
// (package soc)
// wraps a content-addressed chunk with a 32-byte identifier and an ECDSA signature.
// Its address is the hash of the identifier and the owner's Ethereum-style account address,
// so it does not change when the content does.
// The owner is recovered from the signature,
// which lets anyone verify that the chunk at a given address was published by its owner.
//
// Feeds
// (package feed)
// are a naming convention on top of single-owner chunks:
// update number N of a topic lives at the single-owner chunk whose identifier is derived from the topic and N.
//
// Larger data is split into a tree of content-addressed chunks
// (package split)
// whose root address names the whole.
//
// This package holds the vocabulary shared by the others:
// addresses, spans, errors,
// and the Store interface implemented by the chunk stores in the store subpackages.
package bzz
