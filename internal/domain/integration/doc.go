// Package integration contains the catalog synchronization bounded context.
// It models the remote ERP catalog, the local store records the catalog is
// mapped onto, the scheduled sync queue and the order export bookkeeping.
//
// Key concepts:
//   - RemoteItem: one catalog entry from the ERP, a tagged union over simple, variants and pack bodies
//   - UpsertPlan: the local-store write produced by mapping one RemoteItem
//   - SyncQueueEntry / SyncCycle: persistent state of the scheduled sync
//   - Cursor: explicit resumption state of an interactive sync run
//   - OrderExportRecord: idempotence key of the order exporter
//
// Design Pattern: Ports & Adapters
//   - Ports (RemoteCatalog, LocalStore, OrderRepository, QueueRepository, ...) are defined here
//   - Adapters (ERP HTTP client, GORM repositories, Redis stash, SMTP notifier) live in infrastructure
package integration
