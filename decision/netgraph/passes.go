package netgraph

import (
	"github.com/fabiosv/aws-resources-mapper/decision/inventory"
	"github.com/fabiosv/aws-resources-mapper/pkg/api"
)

// pass derives the nodes and edges of one inventory category.
type pass struct {
	category string
	present  func(doc *inventory.Document) bool
	derive   func(r *run, doc *inventory.Document)
}

// corePasses run in this order on every build.
var corePasses = []pass{
	{
		category: inventory.CategorySubnets,
		present:  func(d *inventory.Document) bool { return d.Subnets != nil },
		derive:   deriveSubnets,
	},
	{
		category: inventory.CategorySecurityGroups,
		present:  func(d *inventory.Document) bool { return d.SecurityGroups != nil },
		derive:   deriveSecurityGroups,
	},
	{
		category: inventory.CategoryNetworkInterfaces,
		present:  func(d *inventory.Document) bool { return d.NetworkInterfaces != nil },
		derive:   deriveNetworkInterfaces,
	},
	{
		category: inventory.CategoryNetworkACLs,
		present:  func(d *inventory.Document) bool { return d.NetworkACLs != nil },
		derive:   deriveNetworkACLs,
	},
	{
		category: inventory.CategoryInternetGateways,
		present:  func(d *inventory.Document) bool { return d.InternetGateways != nil },
		derive:   deriveInternetGateways,
	},
	{
		category: inventory.CategoryRouteTables,
		present:  func(d *inventory.Document) bool { return d.RouteTables != nil },
		derive:   deriveRouteTables,
	},
}

// source: subnet ID
// target: the subnet's CIDR block
func deriveSubnets(r *run, doc *inventory.Document) {
	for i, subnet := range doc.Subnets {
		if !r.usable(inventory.CategorySubnets, i, subnet.SubnetId, subnet) {
			continue
		}
		r.acc.addNode(subnet.SubnetId)
		r.acc.addNode(subnet.CidrBlock)
		r.acc.addEdge(subnet.SubnetId, subnet.CidrBlock, api.EdgeKindSubnetCIDR)
	}
}

// source: security group ID
// target: owning VPC | referenced security group | IPv4/IPv6 CIDR in the rules
func deriveSecurityGroups(r *run, doc *inventory.Document) {
	groups := make([]inventory.SecurityGroup, 0, len(doc.SecurityGroups))
	ids := make([]string, 0, len(doc.SecurityGroups))
	for i, sg := range doc.SecurityGroups {
		if !r.usable(inventory.CategorySecurityGroups, i, sg.GroupId, sg) {
			continue
		}
		groups = append(groups, sg)
		ids = append(ids, sg.GroupId)
	}
	r.acc.addNodes(ids...)

	for _, sg := range groups {
		r.acc.addEdge(sg.GroupId, sg.VpcId, api.EdgeKindSGVPC)

		for _, rule := range sg.Rules {
			if rule.ReferencedGroupInfo != nil {
				r.acc.addEdge(sg.GroupId, rule.ReferencedGroupInfo.GroupId, api.EdgeKindSGReferencedGroup)
			}
			r.acc.addEdge(sg.GroupId, rule.CidrIpv4, api.EdgeKindSGCIDRIPv4)
			r.acc.addEdge(sg.GroupId, rule.CidrIpv6, api.EdgeKindSGCIDRIPv6)
		}
	}
}

// source: network interface ID
// target: attached security group | subnet | VPC
func deriveNetworkInterfaces(r *run, doc *inventory.Document) {
	enis := make([]inventory.NetworkInterface, 0, len(doc.NetworkInterfaces))
	ids := make([]string, 0, len(doc.NetworkInterfaces))
	for i, eni := range doc.NetworkInterfaces {
		if !r.usable(inventory.CategoryNetworkInterfaces, i, eni.NetworkInterfaceId, eni) {
			continue
		}
		enis = append(enis, eni)
		ids = append(ids, eni.NetworkInterfaceId)
	}
	r.acc.addNodes(ids...)

	for _, eni := range enis {
		for _, sg := range eni.Groups {
			r.acc.addEdge(eni.NetworkInterfaceId, sg.GroupId, api.EdgeKindENISecurityGroup)
		}
		r.acc.addEdge(eni.NetworkInterfaceId, eni.SubnetId, api.EdgeKindENISubnet)
		r.acc.addEdge(eni.NetworkInterfaceId, eni.VpcId, api.EdgeKindENIVPC)
	}
}

// source: network ACL ID
// target: VPC | associated subnet
func deriveNetworkACLs(r *run, doc *inventory.Document) {
	for i, acl := range doc.NetworkACLs {
		if !r.usable(inventory.CategoryNetworkACLs, i, acl.NetworkAclId, acl) {
			continue
		}
		r.acc.addNode(acl.NetworkAclId)
		r.acc.addEdge(acl.NetworkAclId, acl.VpcId, api.EdgeKindACLVPC)
		for _, assoc := range acl.Associations {
			r.acc.addEdge(acl.NetworkAclId, assoc.SubnetId, api.EdgeKindACLSubnet)
		}
	}
}

// source: internet gateway ID
// target: VPC of the first attachment
func deriveInternetGateways(r *run, doc *inventory.Document) {
	for i, igw := range doc.InternetGateways {
		if !r.usable(inventory.CategoryInternetGateways, i, igw.InternetGatewayId, igw) {
			continue
		}
		r.acc.addNode(igw.InternetGatewayId)
		if len(igw.Attachments) > 0 {
			r.acc.addEdge(igw.InternetGatewayId, igw.Attachments[0].VpcId, api.EdgeKindIGWVPC)
		}
	}
}

var routeTargetKinds = map[inventory.RouteTarget]api.EdgeKind{
	inventory.RouteTargetGateway:   api.EdgeKindRouteToGateway,
	inventory.RouteTargetInstance:  api.EdgeKindRouteToInstance,
	inventory.RouteTargetInterface: api.EdgeKindRouteToInterface,
	inventory.RouteTargetPeering:   api.EdgeKindRouteToPeering,
}

// source: route table ID
// target: associated subnet | route target (gateway, instance, interface or peering connection)
func deriveRouteTables(r *run, doc *inventory.Document) {
	for i, rt := range doc.RouteTables {
		if !r.usable(inventory.CategoryRouteTables, i, rt.RouteTableId, rt) {
			continue
		}
		r.acc.addNode(rt.RouteTableId)

		for _, assoc := range rt.Associations {
			r.acc.addEdge(rt.RouteTableId, assoc.SubnetId, api.EdgeKindRouteTableSubnet)
		}

		for _, route := range rt.Routes {
			target, id := route.Target()
			if target == inventory.RouteTargetNone {
				continue
			}
			r.acc.addNode(id)
			r.acc.addEdge(rt.RouteTableId, id, routeTargetKinds[target])
		}
	}
}
