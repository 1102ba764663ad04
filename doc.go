/*
Package cardano implements the key-handling and transaction-construction core
of a Cardano wallet: recovery-phrase validation, CIP-3 (Icarus) master key
derivation, CIP-1852 hierarchical key derivation, CIP-19 address encoding,
coin selection, protocol fee arithmetic and canonical CBOR transaction
building/signing.

The package performs no I/O of its own. UTXO sets and protocol parameters are
handed in as already-resolved snapshots; the paramclient subpackage provides
an HTTP implementation of those collaborator interfaces for callers that want
one.
*/

package cardano
