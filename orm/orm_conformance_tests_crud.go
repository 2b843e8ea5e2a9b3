package orm

import (
	"context"
	"fmt"
	"testing"

	"github.com/relaydb/ormengine/types"
)

// CRUD Tests
func (act *OrmConformanceTests) runCRUDTests(t *testing.T, client *Client, db types.Database) {
	act.runWithCleanup(t, db, func() {
		t.Run("CreateFindUpdateDelete", func(t *testing.T) {
			ctx := context.Background()

			err := db.LoadSchema(ctx, `
				model Widget {
					id    Int    @id @default(autoincrement())
					name  String
					color String @default("red")
				}
			`)
			assertNoError(t, err, "Failed to load schema")

			err = db.SyncSchemas(ctx)
			assertNoError(t, err, "Failed to sync schemas")

			// Create
			created, err := client.Model("Widget").Create(`{"data": {"name": "Cog", "color": "blue"}}`)
			assertNoError(t, err, "Failed to create widget")
			assertEqual(t, "Cog", created["name"], "Created name mismatch")
			assertEqual(t, "blue", created["color"], "Created color mismatch")

			// FindUnique
			found, err := client.Model("Widget").FindUnique(fmt.Sprintf(`{
				"where": {"id": %v}
			}`, created["id"]))
			assertNoError(t, err, "Failed to find widget")
			assertEqual(t, "Cog", found["name"], "Found name mismatch")

			// Update
			updated, err := client.Model("Widget").Update(fmt.Sprintf(`{
				"where": {"id": %v},
				"data": {"color": "green"}
			}`, created["id"]))
			assertNoError(t, err, "Failed to update widget")
			assertEqual(t, "green", updated["color"], "Updated color mismatch")

			// Delete
			deleted, err := client.Model("Widget").Delete(fmt.Sprintf(`{
				"where": {"id": %v}
			}`, created["id"]))
			assertNoError(t, err, "Failed to delete widget")
			assertEqual(t, "Cog", deleted["name"], "Deleted name mismatch")

			// Confirm gone
			_, err = client.Model("Widget").FindUnique(fmt.Sprintf(`{
				"where": {"id": %v}
			}`, created["id"]))
			if err == nil {
				t.Fatalf("expected error finding deleted widget, got none")
			}
		})
	})

	act.runWithCleanup(t, db, func() {
		t.Run("CreateManyAndDeleteMany", func(t *testing.T) {
			ctx := context.Background()

			err := db.LoadSchema(ctx, `
				model Widget {
					id    Int    @id @default(autoincrement())
					name  String
					color String @default("red")
				}
			`)
			assertNoError(t, err, "Failed to load schema")

			err = db.SyncSchemas(ctx)
			assertNoError(t, err, "Failed to sync schemas")

			result, err := client.Model("Widget").Query(`{
				"createMany": {
					"data": [
						{"name": "Gear"},
						{"name": "Bolt"},
						{"name": "Nut"}
					]
				}
			}`)
			assertNoError(t, err, "Failed to createMany")
			createResult, ok := result.(map[string]any)
			if !ok {
				t.Fatalf("expected createMany result to be a map, got %T", result)
			}
			assertEqual(t, 3, toInt(createResult["count"]), "createMany count mismatch")

			deleteResult, err := client.Model("Widget").DeleteMany(`{
				"where": {"color": "red"}
			}`)
			assertNoError(t, err, "Failed to deleteMany")
			assertEqual(t, 3, toInt(deleteResult["count"]), "deleteMany count mismatch")
		})
	})
}

// Query building tests
func (act *OrmConformanceTests) runQueryTests(t *testing.T, client *Client, db types.Database) {
	act.runWithCleanup(t, db, func() {
		t.Run("WhereOrderBySkipTake", func(t *testing.T) {
			ctx := context.Background()

			err := db.LoadSchema(ctx, `
				model Item {
					id    Int    @id @default(autoincrement())
					name  String
					price Float
				}
			`)
			assertNoError(t, err, "Failed to load schema")

			err = db.SyncSchemas(ctx)
			assertNoError(t, err, "Failed to sync schemas")

			for _, item := range []string{
				`{"data": {"name": "A", "price": 10}}`,
				`{"data": {"name": "B", "price": 20}}`,
				`{"data": {"name": "C", "price": 30}}`,
				`{"data": {"name": "D", "price": 40}}`,
			} {
				_, err := client.Model("Item").Create(item)
				assertNoError(t, err, "Failed to create item")
			}

			results, err := client.Model("Item").FindMany(`{
				"where": {"price": {"gte": 20}},
				"orderBy": {"price": "desc"}
			}`)
			assertNoError(t, err, "Failed to find items")
			assertEqual(t, 3, len(results), "Filtered count mismatch")
			assertEqual(t, "D", results[0]["name"], "OrderBy result mismatch")

			paged, err := client.Model("Item").FindMany(`{
				"orderBy": {"price": "asc"},
				"skip": 1,
				"take": 2
			}`)
			assertNoError(t, err, "Failed to page items")
			assertEqual(t, 2, len(paged), "Page size mismatch")
			assertEqual(t, "B", paged[0]["name"], "Page start mismatch")
		})
	})

	act.runWithCleanup(t, db, func() {
		t.Run("SelectFields", func(t *testing.T) {
			ctx := context.Background()

			err := db.LoadSchema(ctx, `
				model Item {
					id    Int    @id @default(autoincrement())
					name  String
					price Float
				}
			`)
			assertNoError(t, err, "Failed to load schema")

			err = db.SyncSchemas(ctx)
			assertNoError(t, err, "Failed to sync schemas")

			_, err = client.Model("Item").Create(`{"data": {"name": "A", "price": 10}}`)
			assertNoError(t, err, "Failed to create item")

			results, err := client.Model("Item").FindMany(`{
				"select": {"name": true}
			}`)
			assertNoError(t, err, "Failed to select fields")
			assertEqual(t, 1, len(results), "Select result count mismatch")
			if _, hasPrice := results[0]["price"]; hasPrice {
				t.Fatalf("expected price to be excluded from selected fields")
			}
		})
	})
}

// Relations and includes
func (act *OrmConformanceTests) runRelationTests(t *testing.T, client *Client, db types.Database) {
	act.runWithCleanup(t, db, func() {
		t.Run("IncludeOneToMany", func(t *testing.T) {
			ctx := context.Background()

			err := db.LoadSchema(ctx, `
				model Author {
					id    Int    @id @default(autoincrement())
					name  String
					books Book[]
				}
				model Book {
					id       Int    @id @default(autoincrement())
					title    String
					authorId Int
					author   Author @relation(fields: [authorId], references: [id])
				}
			`)
			assertNoError(t, err, "Failed to load schema")

			err = db.SyncSchemas(ctx)
			assertNoError(t, err, "Failed to sync schemas")

			author, err := client.Model("Author").Create(`{"data": {"name": "Octavia"}}`)
			assertNoError(t, err, "Failed to create author")

			_, err = client.Model("Book").Create(fmt.Sprintf(`{
				"data": {"title": "Kindred", "authorId": %v}
			}`, author["id"]))
			assertNoError(t, err, "Failed to create book")

			_, err = client.Model("Book").Create(fmt.Sprintf(`{
				"data": {"title": "Wild Seed", "authorId": %v}
			}`, author["id"]))
			assertNoError(t, err, "Failed to create second book")

			found, err := client.Model("Author").FindUnique(fmt.Sprintf(`{
				"where": {"id": %v},
				"include": {"books": true}
			}`, author["id"]))
			assertNoError(t, err, "Failed to find author with books")

			books, ok := found["books"].([]any)
			if !ok {
				t.Fatalf("expected books to be included as a slice, got %T", found["books"])
			}
			assertEqual(t, 2, len(books), "Included books count mismatch")
		})
	})
}

// toInt coerces the numeric types that arrive from JSON-envelope results.
func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
