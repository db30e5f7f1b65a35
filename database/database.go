package database

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

var DB *sql.DB

// InitDB initializes the database connection and creates tables if they don't exist.
func InitDB(dataSourceName string) error {
	var err error
	DB, err = sql.Open("sqlite3", dataSourceName+"?_foreign_keys=on")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	err = DB.Ping()
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database!")

	// SQL statements to create tables (SQLite compatible)
	createTablesSQL := `
    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        email TEXT UNIQUE NOT NULL,
        password_hash TEXT NOT NULL,
        first_name TEXT NOT NULL,
        last_name TEXT NOT NULL,
        gender TEXT,
        date_of_birth TEXT,
        address TEXT,
        introduction TEXT,
        interests TEXT, -- JSON array of strings
        avatar_path TEXT,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS user_tokens (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
        token TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        UNIQUE(user_id, token)
    );

    CREATE TABLE IF NOT EXISTS dropins (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        type TEXT NOT NULL,
        title TEXT NOT NULL,
        date DATETIME NOT NULL,
        location TEXT NOT NULL,
        address TEXT NOT NULL,
        navigation TEXT,
        description TEXT NOT NULL,
        entry_fee REAL DEFAULT 0,
        interest_tags TEXT, -- JSON array of strings
        image_path TEXT,
        host_id INTEGER NOT NULL REFERENCES users(id),
        attendees_count INTEGER NOT NULL DEFAULT 0,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS dropin_attendees (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        dropin_id INTEGER NOT NULL REFERENCES dropins(id),
        user_id INTEGER NOT NULL REFERENCES users(id),
        joined_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        UNIQUE(dropin_id, user_id)
    );

    CREATE TABLE IF NOT EXISTS user_joined_dropins (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER NOT NULL REFERENCES users(id),
        dropin_id INTEGER NOT NULL REFERENCES dropins(id),
        joined_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        UNIQUE(user_id, dropin_id)
    );

    CREATE TABLE IF NOT EXISTS group_chats (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        dropin_id INTEGER NOT NULL UNIQUE REFERENCES dropins(id), -- at most one chat per dropin
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS group_chat_members (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        chat_id INTEGER NOT NULL REFERENCES group_chats(id),
        user_id INTEGER NOT NULL REFERENCES users(id),
        joined_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        UNIQUE(chat_id, user_id)
    );

    CREATE TABLE IF NOT EXISTS messages (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        chat_id INTEGER NOT NULL REFERENCES group_chats(id),
        sender_id INTEGER NOT NULL REFERENCES users(id),
        text TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    `

	_, err = DB.Exec(createTablesSQL)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	log.Println("Database tables checked/created successfully.")
	return nil
}
