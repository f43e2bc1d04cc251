package builder

import (
	"regexp"
	"strings"

	"github.com/satishbabariya/docsql/query/expr"
)

var aliasRef = regexp.MustCompile(`(?i)[a-z_][a-z0-9_]*\.[a-z_][a-z0-9_]*`)

// tableMap maps each root alias to its FROM table and the aliases joined to it.
// It is rebuilt after every change.
func (b *QueryBuilder) tableMap() map[string]*tableEntry {
	if b.tables != nil {
		return b.tables
	}
	tables := make(map[string]*tableEntry)
	aliases := make([]string, 0, len(b.parts[PartFrom]))
	for _, p := range b.parts[PartFrom] {
		f, ok := p.(*expr.FromRef)
		if !ok {
			f = expr.NewFrom(p.String(), "")
		}
		alias := f.Alias
		if alias == "" {
			alias = f.Table
		}
		entry := &tableEntry{table: f.Table, alias: alias, from: f}
		for joined, root := range b.joinRoots {
			if root == alias {
				entry.joinTables = append(entry.joinTables, joined)
			}
		}
		tables[alias] = entry
		aliases = append(aliases, alias)
	}
	b.tables = tables
	b.rootAliases = aliases
	return tables
}

// RootAliases returns the FROM aliases in clause order
func (b *QueryBuilder) RootAliases() []string {
	if b.rootAliases == nil || b.tables == nil {
		b.tableMap()
	}
	return append([]string(nil), b.rootAliases...)
}

// RootAlias returns the first FROM alias
func (b *QueryBuilder) RootAlias() string {
	aliases := b.RootAliases()
	if len(aliases) == 0 {
		return ""
	}
	return aliases[0]
}

// RootCollection returns the table of the first FROM alias
func (b *QueryBuilder) RootCollection() string {
	if entry, ok := b.tableMap()[b.RootAlias()]; ok {
		return entry.table
	}
	return ""
}

// RootDocuments returns the documents mapped to the FROM tables
func (b *QueryBuilder) RootDocuments() []string {
	tables := b.tableMap()
	var docs []string
	for _, alias := range b.RootAliases() {
		if doc, ok := b.collectionToDocument(tables[alias].table); ok {
			docs = append(docs, doc)
		}
	}
	return docs
}

// JoinedAliases returns the aliases joined to root, directly or transitively
func (b *QueryBuilder) JoinedAliases(root string) []string {
	if entry, ok := b.tableMap()[root]; ok {
		return append([]string(nil), entry.joinTables...)
	}
	return nil
}

// parseTableAlias resolves "alias.column", "alias" or a root table name to a
// known alias. It returns "" when nothing matches.
func (b *QueryBuilder) parseTableAlias(val string) string {
	val = strings.TrimSpace(val)
	if i := strings.Index(val, "."); i > -1 {
		val = strings.TrimSpace(val[:i])
	}
	if val == "" {
		return ""
	}
	tables := b.tableMap()
	if _, ok := tables[val]; ok {
		return val
	}
	for _, alias := range b.rootAliases {
		if tables[alias].table == val {
			return alias
		}
	}
	if _, ok := b.joinRoots[val]; ok {
		return val
	}
	return ""
}

// findJoiningAlias records and returns the root alias that alias hangs off
func (b *QueryBuilder) findJoiningAlias(alias, parent string) string {
	var found string
	if _, ok := b.tableMap()[parent]; ok {
		found = parent
	} else if root, ok := b.joinRoots[parent]; ok {
		found = root
	}
	if found != "" {
		b.joinRoots[alias] = found
	}
	return found
}

func (b *QueryBuilder) conditionAlias(cond expr.Expr, self string) string {
	var candidates []string
	if c, ok := cond.(*expr.Comparison); ok {
		candidates = []string{c.Left, c.Right}
	} else {
		candidates = aliasRef.FindAllString(cond.String(), -1)
	}
	for _, c := range candidates {
		if alias := b.parseTableAlias(c); alias != "" && alias != self {
			return alias
		}
	}
	return ""
}

// Join adds a join whose condition must reference a FROM alias or a
// previously joined alias. condition is an expression or a raw string.
func (b *QueryBuilder) Join(typ expr.JoinType, table, alias string, condition any, opts ...expr.TableOption) *QueryBuilder {
	if condition == nil {
		return b.fail(&UnresolvedJoinError{Table: table, Reason: "a join condition is required"})
	}
	cond, err := expr.Of(condition)
	if err != nil {
		return b.fail(err)
	}

	key := alias
	if key == "" {
		key = table
	}
	parent := b.conditionAlias(cond, key)
	if parent == "" {
		return b.fail(&UnresolvedJoinError{Table: table})
	}
	if b.findJoiningAlias(key, parent) == "" {
		return b.fail(&UnresolvedJoinError{Table: table})
	}

	collection := table
	if c, ok := b.documentToCollection(table); ok {
		collection = c
	}
	return b.Add(PartJoin, expr.NewJoin(typ, collection, alias, cond, opts...), true)
}

// InnerJoin adds an INNER JOIN
func (b *QueryBuilder) InnerJoin(table, alias string, condition any, opts ...expr.TableOption) *QueryBuilder {
	return b.Join(expr.InnerJoin, table, alias, condition, opts...)
}

// LeftJoin adds a LEFT JOIN
func (b *QueryBuilder) LeftJoin(table, alias string, condition any, opts ...expr.TableOption) *QueryBuilder {
	return b.Join(expr.LeftJoin, table, alias, condition, opts...)
}
