// Package database manages the connections repositories read from and
// write to.
//
// A ConnectionManager owns one primary pool and any number of read
// replicas. Writes go to Primary; reads call Replica, which rotates through
// healthy replicas and falls back to the primary when none are configured.
//
//	cm, err := database.NewConnectionManager(database.ConnectionConfig{
//		Driver:      "postgres",
//		PrimaryURL:  os.Getenv("QUERYKIT_DSN"),
//		ReplicaURLs: database.ParseReplicaURLs(os.Getenv("QUERYKIT_REPLICA_DSNS")),
//		MaxConns:    20,
//	}, logger)
//
// Both lib/pq ("postgres") and go-sqlite3 ("sqlite3") are registered.
package database
