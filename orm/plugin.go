package orm

import "context"

// Plugin is a middleware hook a Client can run around every Model.Query
// call. BeforeQuery can rewrite the operation's argument map (e.g. to scope
// a where clause to the current auth context); AfterQuery can rewrite the
// result (e.g. to strip a field the caller isn't allowed to see).
// Either hook may be nil.
type Plugin struct {
	Name        string
	BeforeQuery func(ctx context.Context, modelName, operation string, args map[string]any) (map[string]any, error)
	AfterQuery  func(ctx context.Context, modelName, operation string, result any) (any, error)
}

// ComputedField derives a value from an already-fetched record rather than
// storing it as a column; it runs after every read that returns that model's
// records (findMany/findFirst/findUnique and the write operations that
// return the affected row).
type ComputedField struct {
	Name    string
	Compute func(record map[string]any) any
}

// Use registers a plugin. Plugins run in registration order for
// BeforeQuery and reverse registration order for AfterQuery, the same
// onion ordering Prisma's $use middleware uses.
func (c *Client) Use(p Plugin) {
	c.plugins = append(c.plugins, p)
}

// SetAuth stores an auth context plugins can read back via Auth. Passing
// nil clears it.
func (c *Client) SetAuth(auth any) {
	c.auth = auth
}

// Auth returns whatever was last passed to SetAuth, or nil if unset.
func (c *Client) Auth() any {
	return c.auth
}

// RegisterComputedField adds a computed field to modelName, evaluated over
// every record that model's reads/writes return.
func (c *Client) RegisterComputedField(modelName string, field ComputedField) {
	if c.computedFields == nil {
		c.computedFields = make(map[string][]ComputedField)
	}
	c.computedFields[modelName] = append(c.computedFields[modelName], field)
}

// runBeforeQuery chains every registered plugin's BeforeQuery hook.
func (c *Client) runBeforeQuery(ctx context.Context, modelName, operation string, args map[string]any) (map[string]any, error) {
	for _, p := range c.plugins {
		if p.BeforeQuery == nil {
			continue
		}
		updated, err := p.BeforeQuery(ctx, modelName, operation, args)
		if err != nil {
			return nil, err
		}
		if updated != nil {
			args = updated
		}
	}
	return args, nil
}

// runAfterQuery chains every registered plugin's AfterQuery hook in
// reverse registration order, then applies any computed fields registered
// for modelName.
func (c *Client) runAfterQuery(ctx context.Context, modelName, operation string, result any) (any, error) {
	for i := len(c.plugins) - 1; i >= 0; i-- {
		p := c.plugins[i]
		if p.AfterQuery == nil {
			continue
		}
		updated, err := p.AfterQuery(ctx, modelName, operation, result)
		if err != nil {
			return nil, err
		}
		result = updated
	}

	fields := c.computedFields[modelName]
	if len(fields) == 0 {
		return result, nil
	}

	switch v := result.(type) {
	case map[string]any:
		applyComputedFields(v, fields)
	case []map[string]any:
		for _, record := range v {
			applyComputedFields(record, fields)
		}
	}

	return result, nil
}

func applyComputedFields(record map[string]any, fields []ComputedField) {
	if record == nil {
		return
	}
	for _, f := range fields {
		record[f.Name] = f.Compute(record)
	}
}
