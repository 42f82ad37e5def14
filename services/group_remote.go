package services

import (
	"context"
	"time"

	"poolup_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// GroupRemote is the remote group collection the cache synchronizes with.
// The sync service only talks to the remote through this interface so tests
// can substitute a fake.
type GroupRemote interface {
	FetchAll(ctx context.Context) ([]models.Group, error)
	Create(ctx context.Context, group models.Group) (models.Group, error)
	AddMember(ctx context.Context, groupID, userID string) (models.Group, error)
	RemoveMember(ctx context.Context, groupID, userID string) (models.Group, error)
	DeleteMany(ctx context.Context, groupIDs []string) error
}

// DynamoGroupRemote implements GroupRemote against the RideGroups table.
type DynamoGroupRemote struct {
	Dynamo    *DynamoService
	TableName string
}

func NewDynamoGroupRemote(dynamo *DynamoService) *DynamoGroupRemote {
	return &DynamoGroupRemote{Dynamo: dynamo, TableName: models.GroupsTable}
}

// FetchAll scans the whole remote collection. A scan failure is returned
// as-is (retryable by classification); an unmarshal failure is a data
// invariant violation and must not be retried.
func (r *DynamoGroupRemote) FetchAll(ctx context.Context) ([]models.Group, error) {
	items, err := r.Dynamo.ScanAllItems(ctx, r.TableName)
	if err != nil {
		return nil, err
	}

	var groups []models.Group
	if err := attributevalue.UnmarshalListOfMaps(items, &groups); err != nil {
		return nil, InvariantError("failed to unmarshal group records: %w", err)
	}
	return groups, nil
}

// Create assigns the canonical id and creation timestamp, then writes the
// record. The creator always starts as the first member.
func (r *DynamoGroupRemote) Create(ctx context.Context, group models.Group) (models.Group, error) {
	group.GroupID = uuid.NewString()
	if group.Timestamp == 0 {
		group.Timestamp = time.Now().UnixMilli()
	}
	if len(group.Members) == 0 && group.CreatorID != "" {
		group.Members = []string{group.CreatorID}
	}
	group.Reconcile()

	item, err := attributevalue.MarshalMap(group)
	if err != nil {
		return models.Group{}, InvariantError("failed to marshal group: %w", err)
	}
	if err := r.Dynamo.PutItem(ctx, r.TableName, item, "attribute_not_exists(groupId)"); err != nil {
		return models.Group{}, err
	}
	return group, nil
}

// AddMember adds userID to the group's member set and bumps the count in one
// conditional update. The condition rejects full groups and duplicate joins;
// DynamoDB reports that as a client fault, which classifies as permanent.
func (r *DynamoGroupRemote) AddMember(ctx context.Context, groupID, userID string) (models.Group, error) {
	attrs, err := r.Dynamo.UpdateItem(
		ctx,
		r.TableName,
		groupKey(groupID),
		"ADD members :member SET memberCount = memberCount + :one",
		"attribute_exists(groupId) AND memberCount < maxMembers AND NOT contains(members, :memberId)",
		map[string]types.AttributeValue{
			":member":   &types.AttributeValueMemberSS{Value: []string{userID}},
			":memberId": &types.AttributeValueMemberS{Value: userID},
			":one":      &types.AttributeValueMemberN{Value: "1"},
		},
		nil,
	)
	if err != nil {
		return models.Group{}, err
	}
	return unmarshalGroup(attrs)
}

// RemoveMember removes userID from the member set and decrements the count.
func (r *DynamoGroupRemote) RemoveMember(ctx context.Context, groupID, userID string) (models.Group, error) {
	attrs, err := r.Dynamo.UpdateItem(
		ctx,
		r.TableName,
		groupKey(groupID),
		"DELETE members :member SET memberCount = memberCount - :one",
		"attribute_exists(groupId) AND contains(members, :memberId)",
		map[string]types.AttributeValue{
			":member":   &types.AttributeValueMemberSS{Value: []string{userID}},
			":memberId": &types.AttributeValueMemberS{Value: userID},
			":one":      &types.AttributeValueMemberN{Value: "1"},
		},
		nil,
	)
	if err != nil {
		return models.Group{}, err
	}
	return unmarshalGroup(attrs)
}

// DeleteMany removes the given ids from the remote table. Deleting an id
// that is already gone is a no-op success.
func (r *DynamoGroupRemote) DeleteMany(ctx context.Context, groupIDs []string) error {
	if len(groupIDs) == 0 {
		return nil
	}
	keys := make([]map[string]types.AttributeValue, 0, len(groupIDs))
	for _, id := range groupIDs {
		keys = append(keys, groupKey(id))
	}
	return r.Dynamo.BatchDeleteItems(ctx, r.TableName, keys)
}

func groupKey(groupID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"groupId": &types.AttributeValueMemberS{Value: groupID},
	}
}

func unmarshalGroup(attrs map[string]types.AttributeValue) (models.Group, error) {
	var group models.Group
	if err := attributevalue.UnmarshalMap(attrs, &group); err != nil {
		return models.Group{}, InvariantError("failed to unmarshal group record: %w", err)
	}
	return group, nil
}
