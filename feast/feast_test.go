package feast

import (
	"context"
	"testing"
)

// 需要真实的 Feast 服务器，默认跳过
func TestGrpcClient_GetOnlineFeatures(t *testing.T) {
	t.Skip("requires a running Feast serving endpoint")

	client, err := NewGrpcClient("localhost", 6565, "demo")
	if err != nil {
		t.Fatalf("NewGrpcClient() error = %v", err)
	}
	defer client.Close()

	resp, err := client.GetOnlineFeatures(context.Background(), &GetOnlineFeaturesRequest{
		Features:   []string{"item_stats:ctr", "item_stats:cvr"},
		EntityRows: []map[string]interface{}{{"item_id": "p1"}, {"item_id": "p2"}},
	})
	if err != nil {
		t.Fatalf("GetOnlineFeatures() error = %v", err)
	}
	if len(resp.FeatureVectors) != 2 {
		t.Errorf("got %d feature vectors, want 2", len(resp.FeatureVectors))
	}
}

func TestConvertFromSDKValue(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  interface{}
	}{
		{"string", "hello", "hello"},
		{"int", 7, float64(7)},
		{"int64", int64(7), float64(7)},
		{"float32", float32(2.5), float64(2.5)},
		{"float64", 3.14, 3.14},
		{"bool true", true, float64(1)},
		{"bool false", false, float64(0)},
		{"bytes", []byte("raw"), "raw"},
		{"nil", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := convertFromSDKValue(tt.input); got != tt.want {
				t.Errorf("convertFromSDKValue(%v) = %v (%T), want %v", tt.input, got, got, tt.want)
			}
		})
	}
}

// fakeClient 返回固定特征，覆盖 Source 到 feature.Source 的适配路径。
type fakeClient struct {
	values map[string]interface{}
}

func (f *fakeClient) GetOnlineFeatures(_ context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error) {
	return &GetOnlineFeaturesResponse{
		FeatureVectors: []FeatureVector{
			{Values: f.values, EntityRow: req.EntityRows[0]},
		},
	}, nil
}

func (f *fakeClient) Close() error { return nil }

func TestSource_GetItemFeatures(t *testing.T) {
	src := &Source{
		Client:       &fakeClient{values: map[string]interface{}{"ctr": 0.12, "title": "ignored"}},
		ItemFeatures: []string{"ctr", "title"},
	}

	got, err := src.GetItemFeatures(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetItemFeatures() error = %v", err)
	}
	// only numeric values survive the conversion to feature space
	if len(got) != 1 || got["ctr"] != 0.12 {
		t.Errorf("features = %v, want only ctr=0.12", got)
	}
}

func TestSource_NoClient(t *testing.T) {
	src := &Source{ItemFeatures: []string{"ctr"}}
	got, err := src.GetItemFeatures(context.Background(), "p1")
	if err != nil || got != nil {
		t.Errorf("GetItemFeatures without client = %v, %v, want nil, nil", got, err)
	}
}
