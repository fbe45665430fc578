// Package dynamotest provides an in-memory DynamoDB fake for store tests.
// It understands the narrow slice of expression syntax the stores actually
// use: SET/ADD/REMOVE update clauses and attribute_exists /
// attribute_not_exists / equality conditions.
package dynamotest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type item = map[string]types.AttributeValue

// Fake is an in-memory stand-in for the DynamoDB client interface.
type Fake struct {
	mu     sync.Mutex
	pks    map[string]string          // table -> pk attribute name
	tables map[string]map[string]item // table -> pk value -> item
}

// NewFake returns an empty fake with no tables.
func NewFake() *Fake {
	return &Fake{
		pks:    map[string]string{},
		tables: map[string]map[string]item{},
	}
}

// CreateTable registers a table with its partition-key attribute.
func (f *Fake) CreateTable(name, pkAttr string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pks[name] = pkAttr
	f.tables[name] = map[string]item{}
}

// Items returns a snapshot of all items in a table, for assertions.
func (f *Fake) Items(table string) []item {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []item
	for _, it := range f.tables[table] {
		out = append(out, it)
	}
	return out
}

// Item returns the raw stored item for a key, or nil.
func (f *Fake) Item(table, pk string) item {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tables[table][pk]
}

func (f *Fake) pkOf(table string, attrs item) (string, error) {
	pkAttr, ok := f.pks[table]
	if !ok {
		return "", fmt.Errorf("unknown table %q", table)
	}
	v, ok := attrs[pkAttr]
	if !ok {
		return "", fmt.Errorf("missing pk attribute %q", pkAttr)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New("pk must be a string attribute")
	}
	return s.Value, nil
}

func (f *Fake) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	table := *params.TableName
	pk, err := f.pkOf(table, params.Item)
	if err != nil {
		return nil, err
	}
	existing := f.tables[table][pk]
	if params.ConditionExpression != nil {
		if err := evalCondition(*params.ConditionExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues, existing); err != nil {
			return nil, err
		}
	}
	f.tables[table][pk] = cloneItem(params.Item)
	return &dyn.PutItemOutput{}, nil
}

func (f *Fake) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	table := *params.TableName
	pk, err := f.pkOf(table, params.Key)
	if err != nil {
		return nil, err
	}
	it, ok := f.tables[table][pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: cloneItem(it)}, nil
}

func (f *Fake) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	table := *params.TableName
	pk, err := f.pkOf(table, params.Key)
	if err != nil {
		return nil, err
	}
	delete(f.tables[table], pk)
	return &dyn.DeleteItemOutput{}, nil
}

func (f *Fake) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	table := *params.TableName
	out := &dyn.ScanOutput{}
	for _, it := range f.tables[table] {
		out.Items = append(out.Items, cloneItem(it))
	}
	return out, nil
}

func (f *Fake) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	table := *params.TableName
	pk, err := f.pkOf(table, params.Key)
	if err != nil {
		return nil, err
	}
	existing := f.tables[table][pk]
	if params.ConditionExpression != nil {
		if err := evalCondition(*params.ConditionExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues, existing); err != nil {
			return nil, err
		}
	}
	// DynamoDB upserts on update; start from the key when the item is new.
	it := cloneItem(existing)
	if it == nil {
		it = cloneItem(params.Key)
	}
	if params.UpdateExpression != nil {
		if err := applyUpdate(*params.UpdateExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues, it); err != nil {
			return nil, err
		}
	}
	f.tables[table][pk] = it
	return &dyn.UpdateItemOutput{Attributes: cloneItem(it)}, nil
}

func cloneItem(src item) item {
	if src == nil {
		return nil
	}
	dst := make(item, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func resolveName(name string, names map[string]string) string {
	if strings.HasPrefix(name, "#") {
		if real, ok := names[name]; ok {
			return real
		}
	}
	return name
}

// evalCondition supports attribute_exists(a), attribute_not_exists(a) and
// single equality checks like "#s = :expected".
func evalCondition(expr string, names map[string]string, values item, existing item) error {
	expr = strings.TrimSpace(expr)
	switch {
	case strings.HasPrefix(expr, "attribute_not_exists(") && strings.HasSuffix(expr, ")"):
		attr := resolveName(expr[len("attribute_not_exists("):len(expr)-1], names)
		if existing != nil {
			if _, ok := existing[attr]; ok {
				return &types.ConditionalCheckFailedException{}
			}
		}
		return nil
	case strings.HasPrefix(expr, "attribute_exists(") && strings.HasSuffix(expr, ")"):
		attr := resolveName(expr[len("attribute_exists("):len(expr)-1], names)
		if existing == nil {
			return &types.ConditionalCheckFailedException{}
		}
		if _, ok := existing[attr]; !ok {
			return &types.ConditionalCheckFailedException{}
		}
		return nil
	case strings.Contains(expr, "="):
		parts := strings.SplitN(expr, "=", 2)
		attr := resolveName(strings.TrimSpace(parts[0]), names)
		ref := strings.TrimSpace(parts[1])
		want, ok := values[ref]
		if !ok {
			return fmt.Errorf("condition references unknown value %q", ref)
		}
		if existing == nil {
			return &types.ConditionalCheckFailedException{}
		}
		got, ok := existing[attr]
		if !ok || !attrEqual(got, want) {
			return &types.ConditionalCheckFailedException{}
		}
		return nil
	default:
		return fmt.Errorf("unsupported condition expression %q", expr)
	}
}

func attrEqual(a, b types.AttributeValue) bool {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		bv, ok := b.(*types.AttributeValueMemberS)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberN:
		bv, ok := b.(*types.AttributeValueMemberN)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberBOOL:
		bv, ok := b.(*types.AttributeValueMemberBOOL)
		return ok && av.Value == bv.Value
	default:
		return false
	}
}

// applyUpdate handles SET a = :v, b = :w / ADD c :n / REMOVE d clauses.
func applyUpdate(expr string, names map[string]string, values item, it item) error {
	for _, clause := range splitClauses(expr) {
		switch {
		case strings.HasPrefix(clause, "SET "):
			for _, assign := range strings.Split(clause[4:], ",") {
				parts := strings.SplitN(assign, "=", 2)
				if len(parts) != 2 {
					return fmt.Errorf("bad SET assignment %q", assign)
				}
				attr := resolveName(strings.TrimSpace(parts[0]), names)
				ref := strings.TrimSpace(parts[1])
				v, ok := values[ref]
				if !ok {
					return fmt.Errorf("SET references unknown value %q", ref)
				}
				it[attr] = v
			}
		case strings.HasPrefix(clause, "ADD "):
			for _, add := range strings.Split(clause[4:], ",") {
				fields := strings.Fields(add)
				if len(fields) != 2 {
					return fmt.Errorf("bad ADD clause %q", add)
				}
				attr := resolveName(fields[0], names)
				v, ok := values[fields[1]]
				if !ok {
					return fmt.Errorf("ADD references unknown value %q", fields[1])
				}
				inc, ok := v.(*types.AttributeValueMemberN)
				if !ok {
					return errors.New("ADD supports numeric values only")
				}
				base := int64(0)
				if cur, ok := it[attr].(*types.AttributeValueMemberN); ok {
					n, err := strconv.ParseInt(cur.Value, 10, 64)
					if err != nil {
						return fmt.Errorf("parse %s: %w", attr, err)
					}
					base = n
				}
				delta, err := strconv.ParseInt(inc.Value, 10, 64)
				if err != nil {
					return fmt.Errorf("parse ADD delta: %w", err)
				}
				it[attr] = &types.AttributeValueMemberN{Value: strconv.FormatInt(base+delta, 10)}
			}
		case strings.HasPrefix(clause, "REMOVE "):
			for _, attr := range strings.Split(clause[7:], ",") {
				delete(it, resolveName(strings.TrimSpace(attr), names))
			}
		default:
			return fmt.Errorf("unsupported update clause %q", clause)
		}
	}
	return nil
}

// splitClauses breaks an update expression into its SET/ADD/REMOVE sections.
func splitClauses(expr string) []string {
	keywords := []string{"SET ", "ADD ", "REMOVE "}
	var clauses []string
	rest := strings.TrimSpace(expr)
	for rest != "" {
		next := len(rest)
		// find the start of the following clause, if any
		for _, kw := range keywords {
			if idx := strings.Index(rest[1:], " "+kw); idx >= 0 && idx+1 < next {
				next = idx + 1
			}
		}
		clauses = append(clauses, strings.TrimSpace(rest[:next]))
		rest = strings.TrimSpace(rest[next:])
	}
	return clauses
}
