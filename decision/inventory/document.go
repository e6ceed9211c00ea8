// Package inventory models the network inventory document collected for one VPC
// and loads it from files, object storage or HTTP.
package inventory

// Category names as they appear in the inventory document.
const (
	CategorySubnets           = "subnets"
	CategorySecurityGroups    = "security_groups"
	CategoryNetworkInterfaces = "network_interfaces"
	CategoryNetworkACLs       = "network_acls"
	CategoryInternetGateways  = "internet_gateways"
	CategoryRouteTables       = "route_tables"

	CategoryNATGateways       = "nat_gateways"
	CategoryVPCEndpoints      = "vpc_endpoints"
	CategoryPeeringRequesters = "vpc_peering_requesters"
	CategoryPeeringAccepters  = "vpc_peering_accepters"
	CategoryRDSClusters       = "rds_clusters"
)

// CoreCategories lists the categories every graph build reads, in pass order.
var CoreCategories = []string{
	CategorySubnets,
	CategorySecurityGroups,
	CategoryNetworkInterfaces,
	CategoryNetworkACLs,
	CategoryInternetGateways,
	CategoryRouteTables,
}

// Document is the inventory of one VPC. An absent JSON key decodes to a nil
// slice; an explicit empty array decodes to an empty, non-nil slice.
type Document struct {
	// NetworkID is set by the loader, it is not part of the JSON document.
	NetworkID string `json:"-"`

	VPC *VPC `json:"vpc,omitempty"`

	Subnets           []Subnet           `json:"subnets"`
	SecurityGroups    []SecurityGroup    `json:"security_groups"`
	NetworkInterfaces []NetworkInterface `json:"network_interfaces"`
	NetworkACLs       []NetworkACL       `json:"network_acls"`
	InternetGateways  []InternetGateway  `json:"internet_gateways"`
	RouteTables       []RouteTable       `json:"route_tables"`

	NATGateways       []NATGateway        `json:"nat_gateways,omitempty"`
	VPCEndpoints      []VPCEndpoint       `json:"vpc_endpoints,omitempty"`
	PeeringRequesters []PeeringConnection `json:"vpc_peering_requesters,omitempty"`
	PeeringAccepters  []PeeringConnection `json:"vpc_peering_accepters,omitempty"`
	RDSClusters       []RDSCluster        `json:"rds_clusters,omitempty"`
}

// ID returns the explicit network ID, falling back to the embedded VPC record.
func (d *Document) ID() string {
	if d.NetworkID != "" {
		return d.NetworkID
	}
	if d.VPC != nil {
		return d.VPC.VpcId
	}
	return ""
}

// Missing lists the core categories absent from the document.
func (d *Document) Missing() []string {
	present := map[string]bool{
		CategorySubnets:           d.Subnets != nil,
		CategorySecurityGroups:    d.SecurityGroups != nil,
		CategoryNetworkInterfaces: d.NetworkInterfaces != nil,
		CategoryNetworkACLs:       d.NetworkACLs != nil,
		CategoryInternetGateways:  d.InternetGateways != nil,
		CategoryRouteTables:       d.RouteTables != nil,
	}
	missing := make([]string, 0)
	for _, c := range CoreCategories {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

type VPC struct {
	VpcId     string `json:"VpcId"`
	CidrBlock string `json:"CidrBlock,omitempty"`
	IsDefault bool   `json:"IsDefault,omitempty"`
}

type Subnet struct {
	SubnetId         string `json:"SubnetId" validate:"required"`
	CidrBlock        string `json:"CidrBlock"`
	VpcId            string `json:"VpcId,omitempty"`
	AvailabilityZone string `json:"AvailabilityZone,omitempty"`
}

type SecurityGroup struct {
	GroupId   string              `json:"GroupId" validate:"required"`
	GroupName string              `json:"GroupName,omitempty"`
	VpcId     string              `json:"VpcId,omitempty"`
	Rules     []SecurityGroupRule `json:"Rules"`
}

// SecurityGroupRule carries at most one of a referenced group, an IPv4 or an IPv6 range.
type SecurityGroupRule struct {
	SecurityGroupRuleId string               `json:"SecurityGroupRuleId,omitempty"`
	IsEgress            bool                 `json:"IsEgress,omitempty"`
	IpProtocol          string               `json:"IpProtocol,omitempty"`
	FromPort            int                  `json:"FromPort,omitempty"`
	ToPort              int                  `json:"ToPort,omitempty"`
	CidrIpv4            string               `json:"CidrIpv4,omitempty"`
	CidrIpv6            string               `json:"CidrIpv6,omitempty"`
	ReferencedGroupInfo *ReferencedGroupInfo `json:"ReferencedGroupInfo,omitempty"`
}

type ReferencedGroupInfo struct {
	GroupId string `json:"GroupId"`
	UserId  string `json:"UserId,omitempty"`
	VpcId   string `json:"VpcId,omitempty"`
}

type NetworkInterface struct {
	NetworkInterfaceId string            `json:"NetworkInterfaceId" validate:"required"`
	SubnetId           string            `json:"SubnetId"`
	VpcId              string            `json:"VpcId"`
	Groups             []GroupIdentifier `json:"Groups"`
	PrivateIpAddress   string            `json:"PrivateIpAddress,omitempty"`
}

type GroupIdentifier struct {
	GroupId   string `json:"GroupId"`
	GroupName string `json:"GroupName,omitempty"`
}

type NetworkACL struct {
	NetworkAclId string                  `json:"NetworkAclId" validate:"required"`
	VpcId        string                  `json:"VpcId"`
	IsDefault    bool                    `json:"IsDefault,omitempty"`
	Associations []NetworkACLAssociation `json:"Associations"`
}

type NetworkACLAssociation struct {
	NetworkAclAssociationId string `json:"NetworkAclAssociationId,omitempty"`
	SubnetId                string `json:"SubnetId"`
}

type InternetGateway struct {
	InternetGatewayId string       `json:"InternetGatewayId" validate:"required"`
	Attachments       []Attachment `json:"Attachments"`
}

type Attachment struct {
	State string `json:"State,omitempty"`
	VpcId string `json:"VpcId"`
}

type RouteTable struct {
	RouteTableId string                  `json:"RouteTableId" validate:"required"`
	VpcId        string                  `json:"VpcId,omitempty"`
	Associations []RouteTableAssociation `json:"Associations"`
	Routes       []Route                 `json:"Routes"`
}

type RouteTableAssociation struct {
	RouteTableAssociationId string `json:"RouteTableAssociationId,omitempty"`
	SubnetId                string `json:"SubnetId,omitempty"`
	Main                    bool   `json:"Main,omitempty"`
}

// Route targets are mutually exclusive in practice; Target resolves ties.
type Route struct {
	DestinationCidrBlock     string `json:"DestinationCidrBlock,omitempty"`
	DestinationIpv6CidrBlock string `json:"DestinationIpv6CidrBlock,omitempty"`
	GatewayId                string `json:"GatewayId,omitempty"`
	InstanceId               string `json:"InstanceId,omitempty"`
	NetworkInterfaceId       string `json:"NetworkInterfaceId,omitempty"`
	VpcPeeringConnectionId   string `json:"VpcPeeringConnectionId,omitempty"`
	State                    string `json:"State,omitempty"`
}

// RouteTarget identifies which route field was chosen.
type RouteTarget int

const (
	RouteTargetNone RouteTarget = iota
	RouteTargetGateway
	RouteTargetInstance
	RouteTargetInterface
	RouteTargetPeering
)

// Target returns the first present target in priority order: gateway,
// instance, network interface, peering connection.
func (r Route) Target() (RouteTarget, string) {
	switch {
	case r.GatewayId != "":
		return RouteTargetGateway, r.GatewayId
	case r.InstanceId != "":
		return RouteTargetInstance, r.InstanceId
	case r.NetworkInterfaceId != "":
		return RouteTargetInterface, r.NetworkInterfaceId
	case r.VpcPeeringConnectionId != "":
		return RouteTargetPeering, r.VpcPeeringConnectionId
	default:
		return RouteTargetNone, ""
	}
}

type NATGateway struct {
	NatGatewayId string `json:"NatGatewayId" validate:"required"`
	SubnetId     string `json:"SubnetId"`
	VpcId        string `json:"VpcId"`
	State        string `json:"State,omitempty"`
}

type VPCEndpoint struct {
	VpcEndpointId   string            `json:"VpcEndpointId" validate:"required"`
	VpcEndpointType string            `json:"VpcEndpointType,omitempty"`
	ServiceName     string            `json:"ServiceName,omitempty"`
	VpcId           string            `json:"VpcId"`
	SubnetIds       []string          `json:"SubnetIds"`
	RouteTableIds   []string          `json:"RouteTableIds"`
	Groups          []GroupIdentifier `json:"Groups"`
}

type PeeringConnection struct {
	VpcPeeringConnectionId string   `json:"VpcPeeringConnectionId" validate:"required"`
	RequesterVpcInfo       *VpcInfo `json:"RequesterVpcInfo,omitempty"`
	AccepterVpcInfo        *VpcInfo `json:"AccepterVpcInfo,omitempty"`
}

type VpcInfo struct {
	VpcId     string `json:"VpcId"`
	CidrBlock string `json:"CidrBlock,omitempty"`
	OwnerId   string `json:"OwnerId,omitempty"`
	Region    string `json:"Region,omitempty"`
}

// RDSCluster is a DB cluster attached to the VPC through its security groups.
type RDSCluster struct {
	DBClusterIdentifier string                   `json:"DBClusterIdentifier" validate:"required"`
	Engine              string                   `json:"Engine,omitempty"`
	DBSubnetGroup       string                   `json:"DBSubnetGroup,omitempty"`
	VpcSecurityGroups   []VpcSecurityGroupMember `json:"VpcSecurityGroups"`
}

type VpcSecurityGroupMember struct {
	VpcSecurityGroupId string `json:"VpcSecurityGroupId"`
	Status             string `json:"Status,omitempty"`
}
