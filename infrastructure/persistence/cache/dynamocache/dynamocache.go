// Package dynamocache implements ports.GlobalCache on a single DynamoDB
// table, using the same PK/SK/GSI single-table layout the rest of the
// domain stack's persistence code follows.
package dynamocache

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"beliefgraph/domain/core/entities"
	"beliefgraph/domain/core/valueobjects"
)

// Cache implements ports.GlobalCache on DynamoDB:
//
//	Nodes:      PK=NODE#<bid>             SK=METADATA
//	Edges:      PK=EDGE#<source>|<kind>   SK=SINK#<sink>
//	Path index: on the node item, GSI1PK=PATH#<net> GSI1SK=<path>, queried via GSI1
type Cache struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// New constructs a Cache bound to one table.
func New(client *dynamodb.Client, tableName string, logger *zap.Logger) *Cache {
	return &Cache{client: client, tableName: tableName, logger: logger}
}

type nodeItem struct {
	PK      string         `dynamodbav:"PK"`
	SK      string         `dynamodbav:"SK"`
	GSI1PK  string         `dynamodbav:"GSI1PK,omitempty"`
	GSI1SK  string         `dynamodbav:"GSI1SK,omitempty"`
	Bid     string         `dynamodbav:"Bid"`
	Kind    uint8          `dynamodbav:"Kind"`
	Schema  string         `dynamodbav:"Schema"`
	Title   string         `dynamodbav:"Title"`
	ID      string         `dynamodbav:"ID"`
	Path    string         `dynamodbav:"Path"`
	HomeNet string         `dynamodbav:"HomeNet"`
	Payload map[string]any `dynamodbav:"Payload"`
}

type edgeItem struct {
	PK        string         `dynamodbav:"PK"`
	SK        string         `dynamodbav:"SK"`
	Source    string         `dynamodbav:"Source"`
	Sink      string         `dynamodbav:"Sink"`
	Kind      int            `dynamodbav:"Kind"`
	AutoTitle bool           `dynamodbav:"AutoTitle"`
	OwnedBy   int            `dynamodbav:"OwnedBy"`
	Payload   map[string]any `dynamodbav:"Payload"`
}

func nodePK(bid valueobjects.Bid) string { return fmt.Sprintf("NODE#%s", bid.String()) }

func edgePK(source valueobjects.Bid, kind entities.EdgeKind) string {
	return fmt.Sprintf("EDGE#%s|%d", source.String(), kind)
}
func edgeSK(sink valueobjects.Bid) string { return fmt.Sprintf("SINK#%s", sink.String()) }

func pathPK(net valueobjects.Bid) string { return fmt.Sprintf("PATH#%s", net.String()) }

func (c *Cache) GetNode(ctx context.Context, bid valueobjects.Bid) (*entities.Node, bool, error) {
	out, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: nodePK(bid)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		return nil, false, fmt.Errorf("dynamocache: get node: %w", err)
	}
	if out.Item == nil {
		return nil, false, nil
	}
	var item nodeItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, false, fmt.Errorf("dynamocache: unmarshal node: %w", err)
	}
	return item.toNode()
}

func (c *Cache) PutNode(ctx context.Context, node *entities.Node) error {
	item := nodeItem{
		PK:      nodePK(node.Bid),
		SK:      "METADATA",
		Bid:     node.Bid.String(),
		Kind:    uint8(node.Kind),
		Schema:  node.Schema,
		Title:   node.Title,
		ID:      node.ID,
		Path:    node.Path,
		HomeNet: node.HomeNet.String(),
		Payload: node.Payload,
	}
	if node.Path != "" {
		item.GSI1PK = pathPK(node.HomeNet)
		item.GSI1SK = node.Path
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("dynamocache: marshal node: %w", err)
	}
	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(c.tableName), Item: av})
	if err != nil {
		c.logger.Error("failed to put node", zap.Error(err), zap.String("bid", node.Bid.String()))
		return fmt.Errorf("dynamocache: put node: %w", err)
	}
	return nil
}

func (c *Cache) DeleteNode(ctx context.Context, bid valueobjects.Bid) error {
	_, err := c.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: nodePK(bid)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		return fmt.Errorf("dynamocache: delete node: %w", err)
	}
	return nil
}

func (c *Cache) GetEdge(ctx context.Context, key entities.EdgeKey) (*entities.Edge, bool, error) {
	out, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: edgePK(key.Source, key.Kind)},
			"SK": &types.AttributeValueMemberS{Value: edgeSK(key.Sink)},
		},
	})
	if err != nil {
		return nil, false, fmt.Errorf("dynamocache: get edge: %w", err)
	}
	if out.Item == nil {
		return nil, false, nil
	}
	var item edgeItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, false, fmt.Errorf("dynamocache: unmarshal edge: %w", err)
	}
	return item.toEdge()
}

func (c *Cache) PutEdge(ctx context.Context, edge *entities.Edge) error {
	item := edgeItem{
		PK:        edgePK(edge.Source, edge.Kind),
		SK:        edgeSK(edge.Sink),
		Source:    edge.Source.String(),
		Sink:      edge.Sink.String(),
		Kind:      int(edge.Kind),
		AutoTitle: edge.AutoTitle,
		OwnedBy:   int(edge.OwnedBy),
		Payload:   edge.Payload,
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("dynamocache: marshal edge: %w", err)
	}
	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(c.tableName), Item: av})
	if err != nil {
		return fmt.Errorf("dynamocache: put edge: %w", err)
	}
	return nil
}

func (c *Cache) DeleteEdge(ctx context.Context, key entities.EdgeKey) error {
	_, err := c.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: edgePK(key.Source, key.Kind)},
			"SK": &types.AttributeValueMemberS{Value: edgeSK(key.Sink)},
		},
	})
	if err != nil {
		return fmt.Errorf("dynamocache: delete edge: %w", err)
	}
	return nil
}

func (c *Cache) NodeByPath(ctx context.Context, net valueobjects.Bid, path string) (*entities.Node, bool, error) {
	out, err := c.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		IndexName:              aws.String("GSI1"),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pathPK(net)},
			":sk": &types.AttributeValueMemberS{Value: path},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, false, fmt.Errorf("dynamocache: query path: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, false, nil
	}
	var item nodeItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &item); err != nil {
		return nil, false, fmt.Errorf("dynamocache: unmarshal node: %w", err)
	}
	return item.toNode()
}

func (item nodeItem) toNode() (*entities.Node, bool, error) {
	bid, err := valueobjects.ParseBid(item.Bid)
	if err != nil {
		return nil, false, fmt.Errorf("dynamocache: parse bid: %w", err)
	}
	homeNet, err := valueobjects.ParseBid(item.HomeNet)
	if err != nil {
		return nil, false, fmt.Errorf("dynamocache: parse home net: %w", err)
	}
	return &entities.Node{
		Bid:     bid,
		Kind:    entities.Kind(item.Kind),
		Schema:  item.Schema,
		Title:   item.Title,
		ID:      item.ID,
		Path:    item.Path,
		HomeNet: homeNet,
		Payload: item.Payload,
	}, true, nil
}

func (item edgeItem) toEdge() (*entities.Edge, bool, error) {
	source, err := valueobjects.ParseBid(item.Source)
	if err != nil {
		return nil, false, fmt.Errorf("dynamocache: parse source: %w", err)
	}
	sink, err := valueobjects.ParseBid(item.Sink)
	if err != nil {
		return nil, false, fmt.Errorf("dynamocache: parse sink: %w", err)
	}
	return &entities.Edge{
		Source:    source,
		Sink:      sink,
		Kind:      entities.EdgeKind(item.Kind),
		AutoTitle: item.AutoTitle,
		OwnedBy:   entities.Owner(item.OwnedBy),
		Payload:   item.Payload,
	}, true, nil
}
