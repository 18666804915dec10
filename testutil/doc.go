// Package testutil provides testing utilities for anchorarmy.
//
// This package contains test fixtures and builders that are commonly used
// across tests in the anchorarmy package.
//
// # Important Note on Import Cycles
//
// Mock implementations (mockSigner, recordingObserver, etc.) are kept in the
// anchorarmy package's test files (testing_mocks_test.go) to avoid import
// cycles. This package only contains utilities that don't depend on
// anchorarmy types.
//
// # Test Fixtures
//
// Common test values are provided:
//   - TestAddr1, TestAddr2, TestAddr3: Common test addresses
//   - TestPrivateKey1, TestPrivateKeyHex, TestPrivateKey1Address: Test private keys and derived address
//   - OneEth, TwentyGwei, TwoGwei: Common value constants
//   - ChainIDMainnet, ChainIDGoerli: Common chain IDs
//   - TestTxHash1, TestTxHash2, TestTxHash3, TestBlockHash: Well-known hashes
//
// # Builders
//
// Helper functions for creating test inputs:
//   - NewSuccessReceipt, NewFailedReceipt: Create test receipts
//   - NewReceiptWithBlockNumber: Create a receipt at a specific block
//   - NewHeader: Create a block header with a known timestamp
package testutil
