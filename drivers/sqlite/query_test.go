package sqlite

import (
	"context"
	"testing"

	"github.com/relaydb/ormengine/types"
)

func TestQueryBuilder(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	createTestTable(t, db)

	ctx := context.Background()
	users := []map[string]any{
		{"name": "Alice", "email": "alice@example.com", "age": 25},
		{"name": "Bob", "email": "bob@example.com", "age": 30},
		{"name": "Charlie", "email": "charlie@example.com", "age": 35},
		{"name": "David", "email": "david@example.com", "age": 25},
	}
	for _, u := range users {
		if _, err := db.Model("User").Insert(u).Exec(ctx); err != nil {
			t.Fatalf("Failed to insert: %v", err)
		}
	}

	t.Run("Simple select", func(t *testing.T) {
		var results []map[string]any
		if err := db.Model("User").Select("name", "email").FindMany(ctx, &results); err != nil {
			t.Fatalf("Failed to execute query: %v", err)
		}
		if len(results) != 4 {
			t.Errorf("Expected 4 results, got %d", len(results))
		}
	})

	t.Run("Where clause", func(t *testing.T) {
		var results []map[string]any
		err := db.Model("User").Select().WhereCondition(db.Model("User").Where("age").Equals(25)).FindMany(ctx, &results)
		if err != nil {
			t.Fatalf("Failed to execute query with where: %v", err)
		}
		if len(results) != 2 {
			t.Errorf("Expected 2 results with age=25, got %d", len(results))
		}
	})

	t.Run("Multiple where clauses", func(t *testing.T) {
		cond := db.Model("User").Where("age").GreaterThan(25).And(db.Model("User").Where("name").NotEquals("Charlie"))
		var results []map[string]any
		if err := db.Model("User").Select().WhereCondition(cond).FindMany(ctx, &results); err != nil {
			t.Fatalf("Failed to execute query: %v", err)
		}
		if len(results) != 1 {
			t.Errorf("Expected 1 result, got %d", len(results))
		}
		if results[0]["name"] != "Bob" {
			t.Errorf("Expected Bob, got %v", results[0]["name"])
		}
	})

	t.Run("WhereIn", func(t *testing.T) {
		cond := db.Model("User").Where("name").In("Alice", "Bob")
		var results []map[string]any
		if err := db.Model("User").Select().WhereCondition(cond).FindMany(ctx, &results); err != nil {
			t.Fatalf("Failed to execute query with In: %v", err)
		}
		if len(results) != 2 {
			t.Errorf("Expected 2 results, got %d", len(results))
		}
	})

	t.Run("OrderBy", func(t *testing.T) {
		var results []map[string]any
		err := db.Model("User").Select("name").OrderBy("name", types.DESC).FindMany(ctx, &results)
		if err != nil {
			t.Fatalf("Failed to execute query with OrderBy: %v", err)
		}
		if results[0]["name"] != "David" {
			t.Errorf("Expected first result to be David, got %v", results[0]["name"])
		}
		if results[3]["name"] != "Alice" {
			t.Errorf("Expected last result to be Alice, got %v", results[3]["name"])
		}
	})

	t.Run("Limit and Offset", func(t *testing.T) {
		var results []map[string]any
		err := db.Model("User").Select().OrderBy("name", types.ASC).Limit(2).Offset(1).FindMany(ctx, &results)
		if err != nil {
			t.Fatalf("Failed to execute query with Limit/Offset: %v", err)
		}
		if len(results) != 2 {
			t.Errorf("Expected 2 results with limit, got %d", len(results))
		}
		if results[0]["name"] != "Bob" {
			t.Errorf("Expected first result to be Bob (offset 1), got %v", results[0]["name"])
		}
	})

	t.Run("First", func(t *testing.T) {
		var result map[string]any
		err := db.Model("User").Select().WhereCondition(db.Model("User").Where("age").Equals(30)).FindFirst(ctx, &result)
		if err != nil {
			t.Fatalf("Failed to get first result: %v", err)
		}
		if result["name"] != "Bob" {
			t.Errorf("Expected Bob, got %v", result["name"])
		}

		var missing map[string]any
		err = db.Model("User").Select().WhereCondition(db.Model("User").Where("age").Equals(99)).FindFirst(ctx, &missing)
		if err == nil {
			t.Error("Expected error for no results")
		}
	})

	t.Run("Count", func(t *testing.T) {
		count, err := db.Model("User").Count(ctx)
		if err != nil {
			t.Fatalf("Failed to count: %v", err)
		}
		if count != 4 {
			t.Errorf("Expected count of 4, got %d", count)
		}

		count2, err := db.Model("User").WhereCondition(db.Model("User").Where("age").GreaterThanOrEqual(30)).Count(ctx)
		if err != nil {
			t.Fatalf("Failed to count with where: %v", err)
		}
		if count2 != 2 {
			t.Errorf("Expected count of 2, got %d", count2)
		}
	})

	t.Run("Complex query", func(t *testing.T) {
		cond := db.Model("User").Where("age").GreaterThanOrEqual(25).And(db.Model("User").Where("age").LessThanOrEqual(30))
		var results []map[string]any
		err := db.Model("User").Select("name", "age").
			WhereCondition(cond).
			OrderBy("age", types.ASC).
			Limit(10).
			FindMany(ctx, &results)
		if err != nil {
			t.Fatalf("Failed to execute complex query: %v", err)
		}
		if len(results) != 3 {
			t.Errorf("Expected 3 results, got %d", len(results))
		}

		ages := []int64{
			results[0]["age"].(int64),
			results[1]["age"].(int64),
			results[2]["age"].(int64),
		}
		if ages[0] > ages[1] || ages[1] > ages[2] {
			t.Error("Results not ordered by age ascending")
		}
	})
}
