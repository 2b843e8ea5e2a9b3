package database

// Import all drivers to register them with the registry via their init().
import (
	_ "github.com/relaydb/ormengine/drivers/postgresql"
	_ "github.com/relaydb/ormengine/drivers/sqlite"
)
