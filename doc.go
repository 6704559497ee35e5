// Package cryptotax records crypto income events and computes what has to be
// declared about them. It is designed to be local-first and auditable: the
// ledger is append-only and every derived figure can be recomputed from it.
//
// The core functionalities include:
//   - Ledger: an append-only record of categorized income events (trading,
//     staking, mining, NFT and DeFi), persisted as JSONL.
//   - Import: wallet and exchange exports (CSV or XLSX) turned into events,
//     row by row, reporting the rows that cannot be recorded.
//   - Engine: FIFO lot accounting per asset, pricing events without a
//     valuation through an [oracle.Oracle], producing realized gains.
//   - Alerts: declared values and realized gains above the reporting
//     threshold.
//   - Summary: declared income totals per category.
//
// This package is the foundation of the `ctax` command-line tool and of its
// HTTP API.
package cryptotax
