package postgresql

import (
	"testing"

	"github.com/relaydb/ormengine/schema"
	"github.com/relaydb/ormengine/types"
)

func userMappingSchema() *schema.Schema {
	return schema.New("User").
		AddField(schema.Field{
			Name: "id",
			Type: schema.FieldTypeInt,
		}).
		AddField(schema.Field{
			Name: "fullName",
			Type: schema.FieldTypeString,
			Map:  "full_name",
		}).
		AddField(schema.Field{
			Name: "email",
			Type: schema.FieldTypeString,
		}).
		AddField(schema.Field{
			Name: "userAge",
			Type: schema.FieldTypeInt,
			Map:  "age",
		})
}

func TestPostgreSQLConvertFieldNames(t *testing.T) {
	config := types.Config{Type: "postgresql"}

	db, err := NewPostgreSQLDB(config)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	userSchema := userMappingSchema()
	if err := db.RegisterSchema("User", userSchema); err != nil {
		t.Fatalf("Failed to register schema: %v", err)
	}

	inputData := map[string]interface{}{
		"fullName": "John Doe",
		"email":    "john@example.com",
		"userAge":  30,
	}

	convertedData, err := db.GetFieldMapper().MapSchemaToColumnData("User", inputData)
	if err != nil {
		t.Fatalf("Failed to convert field names: %v", err)
	}

	expectedData := map[string]interface{}{
		"full_name": "John Doe",
		"email":     "john@example.com",
		"age":       30,
	}

	if len(convertedData) != len(expectedData) {
		t.Errorf("Expected %d fields, got %d", len(expectedData), len(convertedData))
	}

	for key, expectedValue := range expectedData {
		if actualValue, exists := convertedData[key]; !exists {
			t.Errorf("Expected key '%s' not found in converted data", key)
		} else if actualValue != expectedValue {
			t.Errorf("Key '%s': expected %v, got %v", key, expectedValue, actualValue)
		}
	}

	if _, exists := convertedData["fullName"]; exists {
		t.Error("Field name 'fullName' should be converted to 'full_name'")
	}
	if _, exists := convertedData["userAge"]; exists {
		t.Error("Field name 'userAge' should be converted to 'age'")
	}
}

func TestPostgreSQLConvertResultFieldNames(t *testing.T) {
	config := types.Config{Type: "postgresql"}

	db, err := NewPostgreSQLDB(config)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	userSchema := userMappingSchema()
	if err := db.RegisterSchema("User", userSchema); err != nil {
		t.Fatalf("Failed to register schema: %v", err)
	}

	inputData := map[string]interface{}{
		"id":        1,
		"full_name": "John Doe",
		"email":     "john@example.com",
		"age":       30,
	}

	convertedData, err := db.GetFieldMapper().MapColumnToSchemaData("User", inputData)
	if err != nil {
		t.Fatalf("Failed to convert result field names: %v", err)
	}

	expectedData := map[string]interface{}{
		"id":       1,
		"fullName": "John Doe",
		"email":    "john@example.com",
		"userAge":  30,
	}

	if len(convertedData) != len(expectedData) {
		t.Errorf("Expected %d fields, got %d", len(expectedData), len(convertedData))
	}

	for key, expectedValue := range expectedData {
		if actualValue, exists := convertedData[key]; !exists {
			t.Errorf("Expected key '%s' not found in converted data", key)
		} else if actualValue != expectedValue {
			t.Errorf("Key '%s': expected %v, got %v", key, expectedValue, actualValue)
		}
	}

	if _, exists := convertedData["full_name"]; exists {
		t.Error("Column name 'full_name' should be converted to 'fullName'")
	}
	if _, exists := convertedData["age"]; exists {
		t.Error("Column name 'age' should be converted to 'userAge'")
	}
}

func TestPostgreSQLConvertFieldNamesWithUnregisteredSchema(t *testing.T) {
	config := types.Config{Type: "postgresql"}

	db, err := NewPostgreSQLDB(config)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	inputData := map[string]interface{}{
		"field1": "value1",
		"field2": "value2",
	}

	_, err = db.GetFieldMapper().MapSchemaToColumnData("UnregisteredModel", inputData)
	if err == nil {
		t.Fatal("Expected an error converting field names for an unregistered schema")
	}
}

func TestPostgreSQLConvertResultFieldNamesWithUnregisteredSchema(t *testing.T) {
	config := types.Config{Type: "postgresql"}

	db, err := NewPostgreSQLDB(config)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	inputData := map[string]interface{}{
		"column1": "value1",
		"column2": "value2",
	}

	_, err = db.GetFieldMapper().MapColumnToSchemaData("UnregisteredModel", inputData)
	if err == nil {
		t.Fatal("Expected an error converting result field names for an unregistered schema")
	}
}
