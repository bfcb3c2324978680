package serializer

import (
	"context"
	"strings"
	"testing"

	"github.com/millwork-dev/millwork/pkg/header"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

type headedDoc struct {
	header.Header `json:",inline" yaml:",inline"`
	Value         int `json:"value" yaml:"value"`
}

func TestParseConfigMapURI(t *testing.T) {
	tests := []struct {
		uri       string
		namespace string
		name      string
		wantErr   bool
	}{
		{"cm://default/millwork-state", "default", "millwork-state", false},
		{"cm://ns/name/with/slash", "ns", "name/with/slash", false},
		{"cm:// ns / name ", "ns", "name", false},
		{"cm://onlynamespace", "", "", true},
		{"cm:///name", "", "", true},
		{"cm://ns/", "", "", true},
		{"configmap://ns/name", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			ns, name, err := ParseConfigMapURI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.namespace, ns)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestConfigMapData(t *testing.T) {
	doc := &headedDoc{Value: 3}
	doc.Init(header.KindWorkbench, header.APIVersion, "v1.2.3")

	data, kind, version, err := ConfigMapData(FormatYAML, doc)
	require.NoError(t, err)
	assert.Equal(t, "Workbench", kind)
	assert.Equal(t, "v1.2.3", version)
	assert.Equal(t, "yaml", data["format"])
	assert.NotEmpty(t, data["timestamp"])
	assert.Contains(t, data["workbench.yaml"], "value: 3")

	data, kind, version, err = ConfigMapData(FormatJSON, map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, header.KindMachineSnapshot.String(), kind)
	assert.Equal(t, "unknown", version)
	assert.Contains(t, data, DataKey(kind, FormatJSON))
}

func TestConfigMapWriter_Serialize(t *testing.T) {
	cs := fake.NewClientset()
	w := NewConfigMapWriter("millwork", "crusher-1", FormatJSON, WithKubeClient(cs))

	doc := &headedDoc{Value: 9}
	doc.Init(header.KindMachineSnapshot, header.APIVersion, "dev")
	require.NoError(t, w.Serialize(context.Background(), doc))
	require.NoError(t, w.Close())

	cm, err := cs.CoreV1().ConfigMaps("millwork").Get(context.Background(), "crusher-1", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "millwork", cm.Labels[LabelName])
	assert.Equal(t, "machinesnapshot", cm.Labels[LabelComponent])
	assert.True(t, strings.Contains(cm.Data["machinesnapshot.json"], `"value": 9`))
}
